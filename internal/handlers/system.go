package handlers

import (
	"errors"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/gramtop961/backend/internal/db"
	"github.com/gramtop961/backend/internal/utils"
)

type SystemHandler struct {
	Store StoreDiag
	Log   *zap.Logger
}

func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Hello from the backend!"})
}

func (h *SystemHandler) Hello(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Hello from the backend API!"})
}

// Test reports store reachability for quick deploy checks. Store errors are
// downgraded to strings here instead of propagated; no other path is this
// lenient.
func (h *SystemHandler) Test(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"backend":           "running",
		"database":          "not available",
		"database_url":      setWord(os.Getenv("DATABASE_URL") != ""),
		"database_name":     setWord(os.Getenv("DATABASE_NAME") != ""),
		"connection_status": "not connected",
		"collections":       []string{},
	}

	if h.Store != nil {
		switch err := h.Store.Ping(r.Context()); {
		case errors.Is(err, db.ErrUnavailable):
			// Handle was never initialized; keep the defaults.
		case err != nil:
			resp["database"] = "error: " + truncate(err.Error(), 50)
		default:
			resp["database"] = "available"
			resp["connection_status"] = "connected"

			names, err := h.Store.CollectionNames(r.Context())
			if err != nil {
				resp["database"] = "connected but error: " + truncate(err.Error(), 50)
			} else {
				if len(names) > 10 {
					names = names[:10]
				}
				resp["collections"] = names
				resp["database"] = "connected and working"
			}
		}
	}

	utils.JSON(w, http.StatusOK, resp)
}

func setWord(ok bool) string {
	if ok {
		return "set"
	}
	return "not set"
}

// truncate cuts s to at most n characters, never mid-rune.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
