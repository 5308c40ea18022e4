package repository

// hashLength is the width of every stored password digest.
const hashLength = 20

const hashCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// HashPassword derives the fixed-length digest stored in the credential
// store: a djb2 rolling hash folded into base-62 characters, least
// significant first. It is deterministic and compact but not a
// cryptographic hash; it never crosses the wire, and the stored file format
// depends on this exact construction, so changing it invalidates every
// existing credential file.
func HashPassword(password string) string {
	h := uint64(5381)
	for i := 0; i < len(password); i++ {
		h = h*33 + uint64(password[i])
	}

	digest := make([]byte, hashLength)
	for i := range digest {
		digest[i] = hashCharset[h%uint64(len(hashCharset))]
		h /= uint64(len(hashCharset))
	}
	return string(digest)
}
