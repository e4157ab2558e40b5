package entries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"dfs_go/internal/domain"
)

// Entry is one contest entry row bound to its parsed lineup. RowIdx points
// back into the file's raw rows so a repaired lineup can be written into the
// exact cells it came from.
type Entry struct {
	ID     string
	RowIdx int
	Lineup *domain.Lineup
}

// File is a parsed contest entries CSV. Rows outside the entry section, and
// every column the parser does not recognize, pass through Write untouched,
// so the file stays uploadable after a repair pass.
type File struct {
	header  []string
	idIdx   int
	slotIdx []int // raw column index per roster spot, in slot order
	slots   []string
	rows    [][]string
	entries []*Entry
}

// Parse reads an entries CSV. Slot cells hold site player ids, optionally
// suffixed with a display name after a colon; players are resolved through
// the pool. Ids missing from the pool become zero-valued placeholder entries
// that the swap analyzer will flag.
func Parse(r io.Reader, pool *domain.Pool, slots domain.SlotMap) (*File, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, domain.NewDataError(1, "header", fmt.Errorf("read header: %w", err))
	}

	f := &File{
		header: header,
		idIdx:  -1,
		slots:  slots.Columns(),
	}

	for i, name := range header {
		if isEntryIDColumn(name) {
			f.idIdx = i
			break
		}
	}
	if f.idIdx < 0 {
		return nil, domain.NewDataError(1, "header", errors.New("no entry id column"))
	}

	// Slot columns repeat (three OF spots), so they are consumed
	// left to right in roster order.
	f.slotIdx = make([]int, 0, len(f.slots))
	next := 0
	for i, name := range header {
		if next < len(f.slots) && strings.EqualFold(strings.TrimSpace(name), f.slots[next]) {
			f.slotIdx = append(f.slotIdx, i)
			next++
		}
	}
	if next != len(f.slots) {
		return nil, domain.NewDataError(1, "header", fmt.Errorf("missing slot column %q", f.slots[next]))
	}

	row := 1
	inEntries := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, domain.NewDataError(row+1, "row", err)
		}
		row++

		if inEntries {
			id := cell(rec, f.idIdx)
			if !isEntryID(id) {
				// The entry section ends at the first blank or
				// non-numeric id; site files append a player
				// reference table below it.
				inEntries = false
				f.rows = append(f.rows, rec)
				continue
			}

			rec = pad(rec, len(header))
			lineup, perr := f.parseLineup(pool, rec, row, id)
			if perr != nil {
				return nil, perr
			}
			f.rows = append(f.rows, rec)
			if lineup != nil {
				f.entries = append(f.entries, &Entry{ID: id, RowIdx: len(f.rows) - 1, Lineup: lineup})
			}
			continue
		}

		f.rows = append(f.rows, rec)
	}

	slog.Debug("entries file parsed",
		slog.Int("entries", len(f.entries)),
		slog.Int("rows", len(f.rows)),
	)

	return f, nil
}

// parseLineup resolves one entry row. Rows with every slot cell blank are
// unfilled entries; they parse to nil and pass through untouched.
func (f *File) parseLineup(pool *domain.Pool, rec []string, row int, entryID string) (*domain.Lineup, error) {
	filled := 0
	for _, idx := range f.slotIdx {
		if cell(rec, idx) != "" {
			filled++
		}
	}
	if filled == 0 {
		return nil, nil
	}
	if filled < len(f.slotIdx) {
		return nil, domain.NewDataError(row, "entry", fmt.Errorf("entry %s fills %d of %d slots", entryID, filled, len(f.slotIdx)))
	}

	lineup := &domain.Lineup{
		EntryID: entryID,
		Entries: make([]domain.LineupEntry, 0, len(f.slotIdx)),
	}
	for k, idx := range f.slotIdx {
		id := playerID(cell(rec, idx))
		if p, ok := pool.Get(id); ok {
			lineup.Entries = append(lineup.Entries, domain.NewEntry(f.slots[k], p))
			continue
		}
		lineup.Entries = append(lineup.Entries, domain.LineupEntry{
			Slot:     f.slots[k],
			PlayerID: id,
			Name:     id,
		})
	}
	return lineup, nil
}

// Entries returns the parsed entry rows in file order.
func (f *File) Entries() []*Entry {
	return f.entries
}

// Apply writes the lineup's player ids back into the entry's slot cells.
func (f *File) Apply(e *Entry, lineup *domain.Lineup) {
	rec := f.rows[e.RowIdx]
	for k, idx := range f.slotIdx {
		rec[idx] = lineup.Entries[k].PlayerID
	}
	e.Lineup = lineup
}

// Write emits the file with its original header, row order and pass-through
// columns.
func (f *File) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.header); err != nil {
		return err
	}
	for _, rec := range f.rows {
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTo writes the file to path.
func (f *File) WriteTo(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create entries file: %w", err)
	}
	if err := f.Write(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// WriteUpload emits freshly generated lineups in the site upload layout, one
// slot column per roster spot.
func WriteUpload(w io.Writer, slots domain.SlotMap, lineups []*domain.Lineup) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(slots.Columns()); err != nil {
		return err
	}
	size := slots.RosterSize()
	for _, l := range lineups {
		if len(l.Entries) != size {
			return fmt.Errorf("lineup has %d entries, want %d", len(l.Entries), size)
		}
		rec := make([]string, size)
		for i, e := range l.Entries {
			rec[i] = e.PlayerID
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func isEntryIDColumn(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, " ", "")
	n = strings.ReplaceAll(n, "_", "")
	return n == "entryid"
}

// isEntryID reports whether the cell looks like a numeric contest entry id.
func isEntryID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// playerID strips an optional display-name suffix from a slot cell.
func playerID(cellValue string) string {
	if i := strings.IndexByte(cellValue, ':'); i >= 0 {
		return strings.TrimSpace(cellValue[:i])
	}
	return cellValue
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func pad(rec []string, n int) []string {
	for len(rec) < n {
		rec = append(rec, "")
	}
	return rec
}
