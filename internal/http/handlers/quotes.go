package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ronnie012/assured-life-server/internal/domain"
	"github.com/ronnie012/assured-life-server/internal/quote"
)

// QuoteEstimate prices a quote. Public: customers see a premium before they
// sign in. The estimate is non-binding until carried into a submission.
func (a *App) QuoteEstimate(w http.ResponseWriter, r *http.Request) {
	var q domain.Quote
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	estimated, err := quote.EstimateQuote(q)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, estimated)
}
