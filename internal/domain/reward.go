package domain

const (
	// UnlockEvery is how many solved problems reveal a full picture.
	UnlockEvery = 15

	// PieceEvery is how many solved problems uncover one piece of it.
	PieceEvery = 5
)

// IsFullUnlock reports whether reaching totalSolved completes a picture.
func IsFullUnlock(totalSolved int) bool {
	return totalSolved > 0 && totalSolved%UnlockEvery == 0
}

// Progress counts solved problems across sessions.
type Progress struct {
	TotalSolved int `json:"totalSolved"`
}

// Record counts one more solved problem and reports whether it triggered
// a full unlock.
func (p *Progress) Record() bool {
	p.TotalSolved++
	return IsFullUnlock(p.TotalSolved)
}

// Album is the 1-based picture currently being uncovered.
func (p Progress) Album() int {
	return p.TotalSolved/UnlockEvery + 1
}

func (p Progress) InAlbum() int {
	return p.TotalSolved % UnlockEvery
}

func (p Progress) PiecesUnlocked() int {
	return p.InAlbum() / PieceEvery
}

// ToNextPiece is the number of solves left before the next piece opens.
func (p Progress) ToNextPiece() int {
	return PieceEvery - p.InAlbum()%PieceEvery
}
