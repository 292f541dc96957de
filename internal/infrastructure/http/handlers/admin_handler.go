package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/application/retention"
)

// AdminHandler exposes maintenance operations behind the admin role.
type AdminHandler struct {
	tokens     ports.TokenStore
	retainDays int
	log        zerolog.Logger
}

func NewAdminHandler(tokens ports.TokenStore, retainDays int, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{tokens: tokens, retainDays: retainDays, log: log}
}

// PruneTokens deletes dead tokens past the retention window. The same
// routine runs on the daily cron; this endpoint exists for manual runs.
func (h *AdminHandler) PruneTokens(w http.ResponseWriter, r *http.Request) {
	pruned, err := retention.RunPruneDeadTokens(r.Context(), h.tokens, h.retainDays)
	if err != nil {
		h.log.Error().Err(err).Msg("token prune failed")
		writeDomainErr(w, err)
		return
	}
	h.log.Info().Int64("pruned", pruned).Msg("token prune complete")
	writeJSON(w, http.StatusOK, map[string]interface{}{"pruned": pruned})
}
