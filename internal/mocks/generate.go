// Package mocks provides generated mock implementations for testing the
// console's watch service.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the watch service's port interfaces. To regenerate after interface changes,
// run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	backend := mocks.NewMockBackendClient(ctrl)
//	backend.EXPECT().Cancel(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
package mocks

// Generate mocks for the watch service ports from internal/service:
// BackendClient (Start, Status, Cancel, StreamURL, StatusURL),
// SnapshotCache (Put, Get, ClaimWatch, RefreshWatch, ActiveWatch, ReleaseWatch),
// RunRecorder (Insert, GetByJobID, Recent).
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=watch_ports_mock.go github.com/ragforge/console/internal/service BackendClient,SnapshotCache,RunRecorder
