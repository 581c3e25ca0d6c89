// Package storage manages the output directory tree for downloaded videos.
//
// Videos are laid out as <root>/<author>/<id>.<format>. Author and file
// names must be single path elements. Author directories are created on demand. Existence checks work on a Snapshot taken once per
// directory, and writes go through a temporary file that is renamed into
// place only after the whole body has been flushed, so an interrupted
// download never leaves a file that looks complete.
//
//	m := storage.NewManager("video")
//	dir, err := m.Dir("alice")
//	if err != nil {
//	    return err
//	}
//	if err := m.EnsureDir(dir); err != nil {
//	    return err
//	}
//	snap, err := m.Snapshot(dir)
//	if err != nil {
//	    return err
//	}
//	if !snap.Has("123.mp4") {
//	    _, err = m.Save(dir, "123.mp4", body)
//	}
package storage
