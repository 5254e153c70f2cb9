package writer

// MemWriter keeps the last archive written to it. Writes copy buf.
type MemWriter struct {
	Buf []byte
	// Writes counts WriteArchive calls.
	Writes int
}

func (w *MemWriter) WriteArchive(buf []byte) error {
	w.Buf = append(w.Buf[:0:0], buf...)
	w.Writes++
	return nil
}
