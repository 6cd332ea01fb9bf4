package service

import (
	"github.com/modulbox/leadform-backend/internal/budget"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_uploads_accepted_total",
			Help: "Images accepted into a slot, by compression rule",
		},
		[]string{"rule", "reencoded"},
	)

	uploadsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_uploads_rejected_total",
			Help: "Images rejected by the attachment checks",
		},
		[]string{"code"},
	)

	uploadBytesSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_upload_bytes_saved_total",
			Help: "Bytes saved by re-encoding accepted images",
		},
	)

	leadsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_leads_submitted_total",
			Help: "Submitted leads, by submission path",
		},
		[]string{"path"},
	)

	imageStorageFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_image_storage_fallbacks_total",
			Help: "Images saved to local disk because the media host was unavailable",
		},
	)
)

type rejectionCoder interface {
	Code() string
}

func recordAccepted(f *budget.AcceptedFile) {
	reencoded := "false"
	if f.Reencoded {
		reencoded = "true"
		uploadBytesSaved.Add(float64(f.OriginalSize - f.Size))
	}
	uploadsAccepted.WithLabelValues(f.Policy.Rule, reencoded).Inc()
}

func recordRejected(err error) {
	if c, ok := err.(rejectionCoder); ok {
		uploadsRejected.WithLabelValues(c.Code()).Inc()
	}
}
