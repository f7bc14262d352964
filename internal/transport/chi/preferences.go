package chi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/glowmart/aisearch/internal/domain"
	"github.com/glowmart/aisearch/internal/repository/prefs"
)

// sessionTTL caps the session cookie lifetime. Stored preferences expire on
// their own retention schedule.
const sessionTTL = 90 * 24 * time.Hour

// handleGetPreferences returns the preference record for the current session,
// minting a new session when the request carries no cookie.
func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	record, err := s.sessionPreferences(w, r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, record)
}

// handleUpdatePreferences merges a partial update into the stored record and
// returns the result.
func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var update domain.PreferenceUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.writeDomainError(w, r, domain.NewValidationError("INVALID_BODY", "request body must be a JSON preference update"))
		return
	}

	record, err := s.sessionPreferences(w, r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	record = record.Merge(update, time.Now())
	if err := s.prefs.Put(r.Context(), record); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, record)
}

// handleResetPreferences clears the stored record but keeps the session id.
func (s *Server) handleResetPreferences(w http.ResponseWriter, r *http.Request) {
	sid := s.sessionID(r)
	if sid == "" {
		// Nothing stored for an anonymous visitor.
		writeData(w, http.StatusOK, domain.Preferences{})
		return
	}
	if err := s.prefs.Reset(r.Context(), sid); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, domain.Preferences{SessionID: sid})
}

// sessionPreferences loads the record for the request session, creating a
// session and setting the cookie when none exists yet.
func (s *Server) sessionPreferences(w http.ResponseWriter, r *http.Request) (domain.Preferences, error) {
	if sid := s.sessionID(r); sid != "" {
		return s.prefs.Get(r.Context(), sid)
	}

	record := prefs.NewSession(time.Now())
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    record.SessionID,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return record, nil
}
