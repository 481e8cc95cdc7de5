package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/tbourn/go-offer-engine/internal/domain"
)

func TestCreateResearch(t *testing.T) {
	offers := newFakeOffers()
	r := newRouter(New(&fakeFlows{}, offers, nil))

	w := do(r, http.MethodPost, "/research", `{"source_url":"https://example.com/report","content":"Clinics lose 30% of bookings."}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var rep domain.ResearchReport
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatalf("json: %v", err)
	}
	if rep.BrandID != "acme" || rep.SourceURL != "https://example.com/report" {
		t.Fatalf("report=%+v", rep)
	}

	for _, body := range []string{`{"source_url":"https://example.com"}`, `{"source_url":"not a url","content":"x"}`} {
		if w := do(r, http.MethodPost, "/research", body); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d", body, w.Code)
		}
	}
	if len(offers.reports) != 1 {
		t.Fatalf("reports=%d", len(offers.reports))
	}
}
