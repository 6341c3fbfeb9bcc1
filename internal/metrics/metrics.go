package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Admin activity
	NewAdminsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_new_admins_total",
		Help: "Total number of admin registrations.",
	})
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_login_attempts_total",
		Help: "Total number of login attempts (successful and failed).",
	}, []string{"status"}) // status: "success" or "failed"
	LogoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_logouts_total",
		Help: "Total number of revoked tokens.",
	})

	// Resource lifecycle
	EntitiesCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_entities_created_total",
		Help: "Total number of collections, galleries and photos created.",
	}, []string{"entity"})
	CascadeDeletesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_cascade_deletes_total",
		Help: "Total number of delete operations run by the lifecycle manager.",
	}, []string{"entity"})
	DocumentsCascadedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_documents_cascaded_total",
		Help: "Total number of dependent documents removed by cascading deletes.",
	}, []string{"entity"})
	ImageCleanupFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_image_cleanup_failures_total",
		Help: "Total number of best-effort image store deletions that failed.",
	}, []string{"operation"}) // operation: "delete" or "delete_folder"
)
