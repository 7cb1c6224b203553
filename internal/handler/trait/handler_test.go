package trait

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/trait-interview/backend/internal/model/trait"
)

func TestListTraitsKeepsCatalogOrder(t *testing.T) {
	catalog := trait.NewMemoryCatalog(trait.Seed())
	r := chi.NewRouter()
	New(catalog).RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/traits", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var got []trait.Trait
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, catalog.List(), got)
}
