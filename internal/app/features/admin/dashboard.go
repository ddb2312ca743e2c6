// internal/app/features/admin/dashboard.go
package admin

import (
	"net/http"

	metricsstore "github.com/dalemusser/eventportal/internal/app/store/metrics"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/app/system/viewdata"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

type dashboardData struct {
	viewdata.BaseVM
	Counts     metricsstore.Counts
	RecentLogs []models.Log
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	counts := metricsstore.FetchDashboardCounts(ctx, h.DB, h.Now())
	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusOK, map[string]any{"counts": counts})
		return
	}

	recent, err := h.recentLogs(ctx, 10)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "admin: recent logs", err, "Unable to load the dashboard.", "/")
		return
	}
	templates.Render(w, r, "admin_dashboard", dashboardData{
		BaseVM:     viewdata.NewBaseVM(w, r, "Admin", "/"),
		Counts:     counts,
		RecentLogs: recent,
	})
}
