package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	MimePDF = "application/pdf"
	// DeviceHeader identifies the client device for the last-user lookup.
	DeviceHeader = "X-Device-ID"
	// MaxReportUpload bounds uploaded report PDFs.
	MaxReportUpload = 10 << 20
)
