// Package fswatch is the shared fsnotify loop behind config hot-reload and
// input-file watching: one file, one callback per write, with the
// rename→create pattern of atomic-save writers handled by re-adding the
// watch after every event.
package fswatch
