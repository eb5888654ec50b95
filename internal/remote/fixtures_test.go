package remote

import (
	"fmt"

	"github.com/emberhq/firewatch/internal/entity"
)

func activityFixture(id string) entity.Activity {
	return entity.Activity{
		ID:            id,
		Date:          "2026-03-14",
		Team:          "Team A",
		Type:          "patrol",
		Title:         "Ridge patrol",
		Personnel:     4,
		DurationHours: 2,
		CreatedAt:     "2026-03-14T02:10:00Z",
	}
}

func incidentBatchFixture(n int) []entity.FireIncident {
	batch := make([]entity.FireIncident, 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, entity.FireIncident{
			ID:       fmt.Sprintf("fi-%d", i),
			Date:     "2026-03-14",
			Location: fmt.Sprintf("Sector %d", i),
			AreaRai:  1.5,
		})
	}
	return batch
}
