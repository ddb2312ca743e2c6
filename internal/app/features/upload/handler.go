// internal/app/features/upload/handler.go
package upload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/clientip"
	"github.com/dalemusser/eventportal/internal/app/system/imagehost"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/app/system/uploadsec"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// folders are the destinations a client may ask for; anything else goes to
// defaultFolder.
var folders = map[string]bool{
	"avatars": true,
	"clubs":   true,
	"events":  true,
	"gallery": true,
}

const defaultFolder = "uploads"

type Handler struct {
	Checker *uploadsec.Checker
	Images  imagehost.Host
	Log     *zap.Logger
}

func NewHandler(checker *uploadsec.Checker, images imagehost.Host, logger *zap.Logger) *Handler {
	return &Handler{Checker: checker, Images: images, Log: logger}
}

type response struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
	Hash     string `json:"hash"`
	MIME     string `json:"mime"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /upload                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleUpload screens the multipart "image" file and stores it with the
// image host. The answer is always JSON.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	f, err := uploadsec.FromRequest(r, "image")
	if errors.Is(err, uploadsec.ErrNoFile) {
		respond.Error(w, http.StatusBadRequest, "No image was uploaded.")
		return
	}
	if err != nil {
		h.Log.Info("upload: unreadable body", zap.Error(err))
		respond.Error(w, http.StatusBadRequest, "The upload could not be read.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Remote())
	defer cancel()

	acc, err := h.Checker.Check(ctx, uploadsec.Meta{
		IP:        clientip.From(r),
		UserID:    user.ID,
		UserAgent: r.UserAgent(),
	}, f)
	var rej *uploadsec.RejectError
	if errors.As(err, &rej) {
		status := http.StatusBadRequest
		if rej.Stage == uploadsec.StageRateLimit {
			status = http.StatusTooManyRequests
			if rej.RetryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(rej.RetryAfter.Round(time.Second)/time.Second)))
			}
		}
		respond.Error(w, status, rej.Reason)
		return
	}
	if err != nil {
		h.Log.Error("upload: check", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Unable to process the upload.")
		return
	}

	stored, err := h.Images.Upload(ctx, imagehost.Object{
		Folder:      folderFor(r.FormValue("folder")),
		Name:        objectName(acc),
		ContentType: acc.MIME,
		Data:        acc.Data,
	})
	if err != nil {
		h.Log.Error("upload: image host",
			zap.String("user_id", user.ID),
			zap.String("sha256", acc.SHA256),
			zap.Error(err))
		respond.Error(w, http.StatusBadGateway, "The image host is unavailable. Please try again.")
		return
	}

	respond.JSON(w, http.StatusOK, response{
		URL:      stored.URL,
		PublicID: stored.PublicID,
		Hash:     acc.SHA256,
		MIME:     acc.MIME,
	})
}

func folderFor(requested string) string {
	f := strings.ToLower(strings.TrimSpace(requested))
	if folders[f] {
		return f
	}
	return defaultFolder
}

// objectName is unique per upload and keeps a short hash prefix so
// duplicates are easy to spot in the host's console.
func objectName(acc *uploadsec.Accepted) string {
	return fmt.Sprintf("%s-%s", acc.SHA256[:12], uuid.New().String()[:8])
}
