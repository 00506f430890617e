// internal/app/system/limits/limits.go
package limits

// Request body size limits.
const (
	// MaxAuthBody covers sign-in, sign-up and password-reset requests.
	MaxAuthBody = 16 << 10 // 16 KB

	// MaxExperimentBody is the full editor form sent on save. Free-text
	// notes make it the largest body the API accepts.
	MaxExperimentBody = 1 << 20 // 1 MB

	// MaxSmallBody covers preview calls (view, treatments, location).
	MaxSmallBody = 64 << 10 // 64 KB
)

// MaxTreatments is the largest treatment count an experiment may carry.
// The count sizes the treatment list, so it is capped before allocation.
const MaxTreatments = 100
