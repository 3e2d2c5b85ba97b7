package store

// keep sealed key tests fast
func init() { scryptN = 1 << 10 }
