package rest_test

import (
	"net/http"
	"testing"

	"github.com/kasuganosora/chargen/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listing struct {
	Kind    string           `json:"kind"`
	Entries []resource.Entry `json:"entries"`
}

func TestCatalog_List(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodGet, "/api/catalog", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), resource.KindDroneMods)

	w = e.do(http.MethodGet, "/api/catalog/metatypes?q=elf", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[listing](t, w)
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "elf", body.Entries[0].ID)

	w = e.do(http.MethodGet, "/api/catalog/lifestyles?sort=cost", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode[listing](t, w)
	require.NotEmpty(t, body.Entries)
	for i := 1; i < len(body.Entries); i++ {
		assert.LessOrEqual(t, body.Entries[i-1].Cost, body.Entries[i].Cost)
	}
}

func TestCatalog_Errors(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/catalog/dragons", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/api/catalog/gear?sort=weight", nil, "").Code)
}
