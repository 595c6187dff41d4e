package catalog

import "github.com/starford/vitrine/internal/models"

func ptr(f float64) *float64 { return &f }

// Default returns the built-in demonstration works.
func Default() []models.Photo {
	return []models.Photo{
		{
			ID: "work1", Title: "Window Portrait 01", Tags: []string{"portrait"},
			Src: "images/window_portrait.jpg", LocationName: "Hangzhou, private home",
			Lat: ptr(30.2741), Lng: ptr(120.1551),
			Params: &models.Params{
				Camera: "Fujifilm X-T4", Lens: "XF 35mm F1.4 R", Aperture: "f/2.0",
				Shutter: "1/125s", ISO: "400", Focal: "35mm", Location: "Hangzhou, private home",
			},
		},
		{
			ID: "work2", Title: "Crossroads Seaview 01", Tags: []string{"travel"},
			Src: "images/street_seaview.jpg", LocationName: "Kamakura, coast road",
			Lat: ptr(35.3083), Lng: ptr(139.5530),
			Params: &models.Params{
				Camera: "Sony A7C", Lens: "FE 55mm F1.8", Aperture: "f/8",
				Shutter: "1/500s", ISO: "100", Focal: "55mm", Location: "Kamakura, coast road",
			},
		},
		{
			ID: "work3", Title: "Snow Mountain Ski 01", Tags: []string{"sport"},
			Src: "images/snow_mountain_ski.jpg", LocationName: "Chamonix, France",
			Lat: ptr(45.9239), Lng: ptr(6.8694),
			Params: &models.Params{
				Camera: "Sony A7RIII", Lens: "FE 24-105mm F4 G OSS", Aperture: "f/10",
				Shutter: "1/2000s", ISO: "200", Focal: "70mm", Location: "Chamonix, France",
			},
		},
		{
			ID: "work4", Title: "City Night 01", Tags: []string{"night"},
			Src: "images/night_city_hk.jpg", LocationName: "Central, Hong Kong",
			Lat: ptr(22.2844), Lng: ptr(114.1569),
			Params: &models.Params{
				Camera: "Canon EOS R", Lens: "RF 50mm F1.8 STM", Aperture: "f/1.8",
				Shutter: "1/80s", ISO: "1600", Focal: "50mm", Location: "Central, Hong Kong",
			},
		},
		{
			ID: "work5", Title: "Lake Through the Window 01", Tags: []string{"travel"},
			Src: "images/window_lakeview.jpg", LocationName: "Seattle, on the ferry",
			Lat: ptr(47.6062), Lng: ptr(-122.3321),
			Params: &models.Params{
				Camera: "Leica Q2", Lens: "Summilux 28mm f/1.7 ASPH", Aperture: "f/5.6",
				Shutter: "1/1000s", ISO: "200", Focal: "28mm", Location: "Seattle, on the ferry",
			},
		},
		{
			ID: "work6", Title: "Statue of Liberty 01", Tags: []string{"architecture"},
			Src: "images/statue_liberty.jpg", LocationName: "Liberty Island, New York",
			Lat: ptr(40.6892), Lng: ptr(-74.0445),
			Params: &models.Params{
				Camera: "Nikon Z7 II", Lens: "NIKKOR Z 70-200mm f/2.8 VR S", Aperture: "f/8",
				Shutter: "1/400s", ISO: "100", Focal: "135mm", Location: "Liberty Island, New York",
			},
		},
	}
}
