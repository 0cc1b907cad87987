package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanEntities(t *testing.T) {
	text := `Marina Heights Tower, unit 1204.
2 bedrooms, 2 bathrooms, 1,350 sqft.
Asking AED 1,850,000. Contact sales@marinaheights.example or +971 50 123 4567.`

	entities, confidence := scanEntities(text)
	require.InDelta(t, 1.0, confidence, 0.001)

	kinds := map[string]int{}
	for _, e := range entities {
		kinds[e.Kind]++
	}
	for _, kind := range []string{"price", "area", "bedrooms", "bathrooms", "email", "phone"} {
		require.Contains(t, kinds, kind)
	}
}

func TestScanEntitiesPartial(t *testing.T) {
	entities, confidence := scanEntities("Spacious 2 bed apartment with sea view.")
	require.InDelta(t, 1.0/6.0, confidence, 0.001)
	require.Len(t, entities, 1)
	require.Equal(t, "bedrooms", entities[0].Kind)
}

func TestScanEntitiesNoMatches(t *testing.T) {
	entities, confidence := scanEntities("nothing structured in here")
	require.Empty(t, entities)
	require.Zero(t, confidence)
}

func TestScanEntitiesCapPerKind(t *testing.T) {
	text := ""
	for i := 0; i < 10; i++ {
		text += "price AED 100,000 listed. "
	}
	entities, _ := scanEntities(text)
	prices := 0
	for _, e := range entities {
		if e.Kind == "price" {
			prices++
		}
	}
	require.Equal(t, maxEntitiesPerKind, prices)
}
