package store

import (
	"time"

	"github.com/aavaaz-civic/platform/internal/complaint/domain"
)

const day = 24 * time.Hour

// DemoComplaints returns the records the demo environment starts with,
// all filed by the demo citizen and worked by the demo agent.
func DemoComplaints(now time.Time) []domain.Complaint {
	rating := 4
	return []domain.Complaint{
		{
			ID:               "1",
			Title:            "Pothole on Main Street",
			Description:      "There is a large pothole on Main Street near the intersection with Oak Avenue that is causing damage to vehicles.",
			Location:         "123 Main Street",
			Category:         domain.CategoryRoads,
			Status:           domain.StatusResolved,
			ImageURL:         "https://images.pexels.com/photos/247795/pexels-photo-247795.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=1",
			OwnerID:          "1",
			AssignedTo:       "2",
			ResolutionNotes:  "Pothole has been filled and road surface repaired.",
			ResolutionImages: []string{"https://images.pexels.com/photos/544966/pexels-photo-544966.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=1"},
			Rating:           &rating,
			CreatedAt:        now.Add(-27 * day),
			UpdatedAt:        now,
		},
		{
			ID:          "2",
			Title:       "Street Light Not Working",
			Description: "The street light on Elm Street has been out for over a week, making the area very dark and unsafe at night.",
			Location:    "456 Elm Street",
			Category:    domain.CategoryElectricity,
			Status:      domain.StatusInProgress,
			ImageURL:    "https://images.pexels.com/photos/248159/pexels-photo-248159.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=1",
			OwnerID:     "1",
			AssignedTo:  "2",
			CreatedAt:   now.Add(-18 * day),
			UpdatedAt:   now,
		},
		{
			ID:          "3",
			Title:       "Water Main Break",
			Description: "Water is flooding the street due to what appears to be a broken water main. The water has been flowing for several hours.",
			Location:    "789 Pine Avenue",
			Category:    domain.CategoryWater,
			Status:      domain.StatusAssigned,
			ImageURL:    "https://images.pexels.com/photos/2253915/pexels-photo-2253915.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=1",
			OwnerID:     "1",
			AssignedTo:  "2",
			CreatedAt:   now.Add(-9 * day),
			UpdatedAt:   now,
		},
		{
			ID:          "4",
			Title:       "Overflowing Trash Bins",
			Description: "The public trash bins in Central Park haven't been emptied in weeks and are overflowing, causing a sanitation issue.",
			Location:    "Central Park, Near West Entrance",
			Category:    domain.CategorySanitation,
			Status:      domain.StatusPending,
			ImageURL:    "https://images.pexels.com/photos/3935236/pexels-photo-3935236.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=1",
			OwnerID:     "1",
			CreatedAt:   now.Add(-4 * day),
			UpdatedAt:   now,
		},
		{
			ID:              "5",
			Title:           "Damaged Park Bench",
			Description:     "One of the benches in City Park has broken slats that could cause injury to someone sitting on it.",
			Location:        "City Park, Near Fountain",
			Category:        domain.CategoryOther,
			Status:          domain.StatusRejected,
			ImageURL:        "https://images.pexels.com/photos/1201673/pexels-photo-1201673.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=1",
			OwnerID:         "1",
			ResolutionNotes: "This bench is scheduled for replacement in the next fiscal year as part of park renovations.",
			CreatedAt:       now.Add(-22 * day),
			UpdatedAt:       now,
		},
	}
}
