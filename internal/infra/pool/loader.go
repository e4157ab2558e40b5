package pool

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dfs_go/internal/domain"
	"dfs_go/pkg/points"
)

// Required columns of a contest-site player export. Nickname, injury and
// ownership columns are optional.
var requiredColumns = []string{"Id", "Position", "FPPG", "Salary", "Team", "Opponent"}

// Loader reads a player export CSV into a domain Pool. Players on the
// exclusion list never enter the pool, so no downstream constraint has to
// re-check them.
type Loader struct {
	excluded map[string]bool
}

// NewLoader creates a Loader that drops the given player ids at load time.
func NewLoader(excluded []string) *Loader {
	set := make(map[string]bool, len(excluded))
	for _, id := range excluded {
		set[id] = true
	}
	return &Loader{excluded: set}
}

// Load reads the export at path.
func (l *Loader) Load(path string) (*domain.Pool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open player pool: %w", err)
	}
	defer f.Close()
	return l.Parse(f)
}

// Parse reads a player export from r. Duplicate ids keep the record with the
// higher projection, matching how re-exported site files repeat players.
func (l *Loader) Parse(r io.Reader) (*domain.Pool, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, domain.NewDataError(1, "header", fmt.Errorf("read header: %w", err))
	}
	cols := indexHeader(header)
	if missing := cols.missing(requiredColumns); len(missing) > 0 {
		return nil, domain.NewDataError(1, "header", fmt.Errorf("missing columns: %s", strings.Join(missing, ", ")))
	}

	byID := make(map[string]*domain.Player)
	order := make([]string, 0, 256)
	row := 1
	excludedCount := 0

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, domain.NewDataError(row+1, "row", err)
		}
		row++

		if blankRecord(rec) {
			continue
		}

		p, perr := l.parsePlayer(cols, rec, row)
		if perr != nil {
			return nil, perr
		}
		if p == nil {
			excludedCount++
			continue
		}

		if prev, dup := byID[p.ID]; dup {
			if p.Projection > prev.Projection {
				byID[p.ID] = p
			}
			continue
		}
		byID[p.ID] = p
		order = append(order, p.ID)
	}

	if len(order) == 0 {
		return nil, domain.ErrEmptyPool
	}

	players := make([]*domain.Player, 0, len(order))
	for _, id := range order {
		players = append(players, byID[id])
	}

	slog.Debug("player pool parsed",
		slog.Int("players", len(players)),
		slog.Int("excluded", excludedCount),
	)

	return domain.NewPool(players), nil
}

// parsePlayer converts one record. It returns (nil, nil) for excluded ids.
func (l *Loader) parsePlayer(cols headerIndex, rec []string, row int) (*domain.Player, error) {
	id := cols.get(rec, "Id")
	if id == "" {
		return nil, domain.NewDataError(row, "Id", errors.New("empty player id"))
	}
	if l.excluded[id] {
		return nil, nil
	}

	rawPos := cols.get(rec, "Position")
	if rawPos == "" {
		return nil, domain.NewDataError(row, "Position", errors.New("empty position"))
	}
	positions := splitPositions(rawPos)

	salary, err := strconv.Atoi(cols.get(rec, "Salary"))
	if err != nil || salary <= 0 {
		return nil, domain.NewDataError(row, "Salary", fmt.Errorf("invalid salary %q", cols.get(rec, "Salary")))
	}

	proj := points.Points(0)
	if raw := cols.get(rec, "FPPG"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, domain.NewDataError(row, "FPPG", fmt.Errorf("invalid projection %q", raw))
		}
		proj = points.FromDecimal(d)
	}

	team := cols.get(rec, "Team")
	if team == "" {
		return nil, domain.NewDataError(row, "Team", errors.New("empty team"))
	}

	p := &domain.Player{
		ID:         id,
		First:      cols.get(rec, "First Name"),
		Last:       cols.get(rec, "Last Name"),
		Name:       cols.get(rec, "Nickname"),
		Positions:  positions,
		Team:       team,
		Opponent:   cols.get(rec, "Opponent"),
		Salary:     salary,
		Projection: proj,
		Injury:     cols.get(rec, "Injury Indicator"),
	}
	if p.Name == "" {
		p.Name = strings.TrimSpace(p.First + " " + p.Last)
	}

	if raw := cols.get(rec, "Roster Order"); raw != "" && raw != "-" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			slog.Warn("invalid roster order, treating as unannounced",
				slog.String("player", p.Name),
				slog.String("value", raw),
			)
		} else {
			p.RosterOrder = n
		}
	}

	if raw := cols.get(rec, "Probable Pitcher"); strings.EqualFold(raw, "yes") {
		p.ProbablePitcher = true
	}

	if raw := cols.get(rec, "Projected Ownership"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, domain.NewDataError(row, "Projected Ownership", fmt.Errorf("invalid ownership %q", raw))
		}
		p.Ownership = d
	}

	return p, nil
}

func splitPositions(raw string) []string {
	parts := strings.Split(raw, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if pos := strings.TrimSpace(part); pos != "" {
			out = append(out, pos)
		}
	}
	return out
}

func blankRecord(rec []string) bool {
	for _, field := range rec {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

type headerIndex map[string]int

func indexHeader(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	return idx
}

func (h headerIndex) get(rec []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (h headerIndex) missing(cols []string) []string {
	var missing []string
	for _, col := range cols {
		if _, ok := h[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// Resampler perturbs pool projections with normal noise between build
// attempts so repeated solves explore different near-optimal lineups.
// Base projections are captured the first time a player is seen, so the
// noise never compounds across attempts.
type Resampler struct {
	stddev float64
	rng    *rand.Rand
	base   map[string]points.Points
}

// NewResampler creates a Resampler. A zero seed draws one from the clock.
func NewResampler(stddev decimal.Decimal, seed int64) *Resampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Resampler{
		stddev: stddev.InexactFloat64(),
		rng:    rand.New(rand.NewSource(seed)),
		base:   make(map[string]points.Points),
	}
}

// Resample rewrites every projection as base + noise, clamped at zero. A
// non-positive stddev leaves the pool untouched.
func (r *Resampler) Resample(p *domain.Pool) {
	if r.stddev <= 0 {
		return
	}
	for _, pl := range p.Players() {
		base, ok := r.base[pl.ID]
		if !ok {
			base = pl.Projection
			r.base[pl.ID] = base
		}
		jittered := base.Float() + r.rng.NormFloat64()*r.stddev
		if jittered < 0 {
			jittered = 0
		}
		pl.Projection = points.FromFloat(jittered)
	}
}
