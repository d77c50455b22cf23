package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	ContentSourceLocal = "local"
	ContentSourceMinio = "minio"

	StorageBackendMySQL  = "mysql"
	StorageBackendMemory = "memory"
)

// Persistent store key layout. Namespacing keeps engine keys from
// colliding with view-layer keys such as lastWheelModule.
const (
	KeyNamespace              = "ihkprep:"
	KeyProgress               = "progress"
	KeySnapshotPrefix         = "progress:snapshot:"
	KeySpecialization         = "specialization:current"
	KeySpecializationSelected = "specialization:hasSelected"
	KeyLastWheelModule        = "lastWheelModule" // reserved for the view layer
)
