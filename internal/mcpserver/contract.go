package mcpserver

// LayoutFormatContract describes the exhibition canvas coordinate system
// that LLM consumers should follow when placing or resizing items.
const LayoutFormatContract = `# Vitrine Layout Format Contract

The exhibition is a free-form canvas. Every item carries its position and
width as percentages of the canvas, so layouts survive any screen size.

## Item shape

` + "```" + `json
{
  "id": "0192f1c4-...",          // photo items: UUIDv7; text items: "text-" + UUIDv7
  "type": "photo",               // "photo" or "text"
  "photoId": "work1",            // photo items only; a work appears at most once
  "caption": "Gallery label",    // photo items only; omitted follows the work title, "" hides it
  "content": "Opening night",    // text items only
  "fontSize": "medium",          // text items only: small, medium, large
  "align": "left",               // text items only
  "xPercent": 30,                // left edge, 0..100-widthPercent
  "yPercent": 30,                // top edge, 0..100-assumed item height
  "widthPercent": 18             // 8..50
}
` + "```" + `

## Rules

1. **Defaults.** New photos land at x=30, y=30 with width 18. New text blocks
   land at x=30, y=20 with width 30 and content "Double-click to edit".
2. **Width** stays within 8% and 50%. A resize that would leave this range is
   rejected and the width is unchanged. Use steps of 2 to mirror the UI buttons.
3. **Position** is clamped: x to [0, 100-width], y to [0, 100-8] where 8 is the
   assumed item height in percent.
4. **Duplicates.** Adding a work already on the canvas fails with
   "This work is already in the exhibition".
5. **Order** is insertion order; later items render above earlier ones.
6. **Removing a user photo** leaves its canvas item in the layout; it simply
   stops rendering until removed.

## Workflow

- Call ` + "`" + `list_works` + "`" + ` (optionally with tags) to find ids.
- Call ` + "`" + `add_to_exhibition` + "`" + ` or ` + "`" + `add_text_block` + "`" + `, then
  ` + "`" + `resize_item` + "`" + ` as needed.
- Call ` + "`" + `get_exhibition` + "`" + ` to verify the result.
`
