package analysis

import (
	"math/rand/v2"

	"nagarneuron/backend/internal/models"
)

var descriptions = map[models.Category][]string{
	models.CategoryPothole: {
		"Large pothole detected on the main road, approximately 2.5 feet in diameter, causing significant traffic disruption and potential vehicle damage.",
		"Deep crater-like pothole identified near the junction, filled with water creating visibility issues for drivers.",
		"Multiple interconnected potholes spanning across the lane, creating a hazardous stretch for two-wheelers and pedestrians.",
		"Severe road damage with exposed subsurface material, likely caused by recent rainfall and heavy vehicle traffic.",
		"Crumbling asphalt with sharp edges detected, posing immediate risk to motorcycle tires and cyclists.",
	},
	models.CategoryGarbage: {
		"Overflowing garbage bin with waste spilling onto the sidewalk, attracting stray animals and creating unsanitary conditions.",
		"Accumulated municipal waste not collected for several days, emitting foul odor affecting nearby residents and businesses.",
		"Construction debris mixed with household waste blocking pedestrian pathway, requiring immediate clearance.",
		"Plastic waste and packaging materials scattered across the area, indicating need for additional waste collection frequency.",
		"Open dumping of mixed waste including organic and electronic materials, requiring proper segregation and disposal.",
	},
	models.CategoryStreetlight: {
		"Non-functional streetlight creating safety hazard for pedestrians and vehicles after sunset, particularly concerning for women and elderly.",
		"Flickering streetlight with intermittent functionality, causing visual discomfort and inadequate illumination.",
		"Damaged streetlight pole leaning dangerously, requiring immediate structural assessment and repair.",
		"Complete power outage affecting entire stretch of streetlights, creating dark zone vulnerable to criminal activity.",
		"Broken light fixture with exposed wiring, posing electrocution risk during rainy season.",
	},
	models.CategoryDrainage: {
		"Clogged storm drain causing water accumulation on the road, creating breeding ground for mosquitoes and health hazard.",
		"Overflowing drainage channel during light rain indicating severe blockage, requiring immediate cleaning.",
		"Missing drain cover exposing open manhole, extremely dangerous for pedestrians especially at night.",
		"Sewage backup visible on street surface, causing foul smell and contamination risk for nearby food establishments.",
		"Damaged drainage pipe causing continuous water seepage, undermining road foundation and creating sinkholes.",
	},
	models.CategoryOther: {
		"Damaged road signage creating confusion for drivers, particularly at critical junction points.",
		"Overgrown vegetation obstructing visibility at intersection, requiring immediate trimming for traffic safety.",
		"Broken footpath tiles creating tripping hazard for pedestrians, especially elderly and differently-abled citizens.",
		"Abandoned vehicle blocking public parking space, occupying area for extended period without authorization.",
		"Damaged public bench with broken seating and sharp metal edges, unsafe for public use.",
	},
}

// Describe returns a canned description for the category with the location
// label appended.
func Describe(category models.Category, location string, r IntN) string {
	if r == nil {
		r = rand.IntN
	}
	pool, ok := descriptions[category]
	if !ok {
		pool = descriptions[models.CategoryOther]
	}
	return pool[r(len(pool))] + " Location: " + location + "."
}
