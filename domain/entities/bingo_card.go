package entities

import (
	"fmt"
	"sort"
	"time"
)

// BingoPattern names a winning arrangement of marked cells
type BingoPattern string

const (
	// 75-ball patterns
	BingoPatternLine        BingoPattern = "line"
	BingoPatternFourCorners BingoPattern = "four_corners"
	BingoPatternX           BingoPattern = "x"

	// 90-ball patterns
	BingoPatternOneLine  BingoPattern = "one_line"
	BingoPatternTwoLines BingoPattern = "two_lines"

	// Both rule sets
	BingoPatternFullHouse BingoPattern = "full_house"
)

// ValidFor reports whether the pattern exists in the given rule set
func (p BingoPattern) ValidFor(ruleSet BingoRuleSet) bool {
	switch ruleSet {
	case BingoRuleSet75:
		return p == BingoPatternLine || p == BingoPatternFourCorners || p == BingoPatternX || p == BingoPatternFullHouse
	case BingoRuleSet90:
		return p == BingoPatternOneLine || p == BingoPatternTwoLines || p == BingoPatternFullHouse
	}
	return false
}

const (
	card75Size    = 5
	card90Rows    = 3
	card90Columns = 9
	card90PerRow  = 5
)

// BingoCard is the unit a player buys. Numbers are stored row-major;
// a zero is the free centre on a 75-ball card and an empty cell on a 90-ball card.
type BingoCard struct {
	ID          int64        `db:"id"`
	GameID      int64        `db:"game_id"`
	UserID      int64        `db:"user_id"`
	RuleSet     BingoRuleSet `db:"-"`
	Numbers     []int64      `db:"numbers"`
	PurchasedAt time.Time    `db:"purchased_at"`
}

// GenerateCard deals a random card for the given rule set
func GenerateCard(gameID, userID int64, ruleSet BingoRuleSet, rng Randomizer) (*BingoCard, error) {
	var (
		numbers []int64
		err     error
	)
	switch ruleSet {
	case BingoRuleSet75:
		numbers, err = generate75(rng)
	case BingoRuleSet90:
		numbers, err = generate90(rng)
	default:
		return nil, fmt.Errorf("%w: unsupported rule set %d", ErrInvalidConfig, ruleSet)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate card: %w", err)
	}

	return &BingoCard{
		GameID:  gameID,
		UserID:  userID,
		RuleSet: ruleSet,
		Numbers: numbers,
	}, nil
}

// generate75 fills a 5x5 grid where column c draws from 15c+1..15c+15 and the centre is free
func generate75(rng Randomizer) ([]int64, error) {
	grid := make([]int64, card75Size*card75Size)
	for col := 0; col < card75Size; col++ {
		from := int64(col*15 + 1)
		picked, err := pickDistinct(rng, numberRange(from, from+14), card75Size)
		if err != nil {
			return nil, err
		}
		sort.Slice(picked, func(i, j int) bool { return picked[i] < picked[j] })
		for row := 0; row < card75Size; row++ {
			grid[row*card75Size+col] = picked[row]
		}
	}
	grid[2*card75Size+2] = 0
	return grid, nil
}

// column90Range returns the number range of a 90-ball column: 1-9, 10-19 ... 80-90
func column90Range(col int) (int64, int64) {
	switch col {
	case 0:
		return 1, 9
	case card90Columns - 1:
		return 80, 90
	default:
		return int64(col * 10), int64(col*10 + 9)
	}
}

// generate90 fills a 3x9 grid with five numbers per row, ascending down each column
func generate90(rng Randomizer) ([]int64, error) {
	columns := make([]int64, card90Columns)
	for i := range columns {
		columns[i] = int64(i)
	}

	occupied := make([][]bool, card90Rows)
	perColumn := make([]int, card90Columns)
	for row := 0; row < card90Rows; row++ {
		occupied[row] = make([]bool, card90Columns)
		picked, err := pickDistinct(rng, columns, card90PerRow)
		if err != nil {
			return nil, err
		}
		for _, col := range picked {
			occupied[row][col] = true
			perColumn[col]++
		}
	}

	grid := make([]int64, card90Rows*card90Columns)
	for col := 0; col < card90Columns; col++ {
		if perColumn[col] == 0 {
			continue
		}
		from, to := column90Range(col)
		picked, err := pickDistinct(rng, numberRange(from, to), perColumn[col])
		if err != nil {
			return nil, err
		}
		sort.Slice(picked, func(i, j int) bool { return picked[i] < picked[j] })
		next := 0
		for row := 0; row < card90Rows; row++ {
			if occupied[row][col] {
				grid[row*card90Columns+col] = picked[next]
				next++
			}
		}
	}
	return grid, nil
}

// Matches reports whether the card completes pattern given the drawn numbers
func (c *BingoCard) Matches(pattern BingoPattern, drawn map[int64]bool) bool {
	switch c.RuleSet {
	case BingoRuleSet75:
		return c.matches75(pattern, drawn)
	case BingoRuleSet90:
		return c.matches90(pattern, drawn)
	}
	return false
}

func (c *BingoCard) marked75(drawn map[int64]bool) []bool {
	marked := make([]bool, len(c.Numbers))
	for i, n := range c.Numbers {
		marked[i] = n == 0 || drawn[n]
	}
	return marked
}

func (c *BingoCard) matches75(pattern BingoPattern, drawn map[int64]bool) bool {
	if len(c.Numbers) != card75Size*card75Size {
		return false
	}
	m := c.marked75(drawn)
	at := func(row, col int) bool { return m[row*card75Size+col] }

	diagonal := func(anti bool) bool {
		for i := 0; i < card75Size; i++ {
			col := i
			if anti {
				col = card75Size - 1 - i
			}
			if !at(i, col) {
				return false
			}
		}
		return true
	}

	switch pattern {
	case BingoPatternLine:
		for i := 0; i < card75Size; i++ {
			rowDone, colDone := true, true
			for j := 0; j < card75Size; j++ {
				rowDone = rowDone && at(i, j)
				colDone = colDone && at(j, i)
			}
			if rowDone || colDone {
				return true
			}
		}
		return diagonal(false) || diagonal(true)
	case BingoPatternFourCorners:
		last := card75Size - 1
		return at(0, 0) && at(0, last) && at(last, 0) && at(last, last)
	case BingoPatternX:
		return diagonal(false) && diagonal(true)
	case BingoPatternFullHouse:
		for _, v := range m {
			if !v {
				return false
			}
		}
		return true
	}
	return false
}

// completedRows90 counts rows whose numbers have all been drawn
func (c *BingoCard) completedRows90(drawn map[int64]bool) int {
	completed := 0
	for row := 0; row < card90Rows; row++ {
		done := true
		for col := 0; col < card90Columns; col++ {
			n := c.Numbers[row*card90Columns+col]
			if n != 0 && !drawn[n] {
				done = false
				break
			}
		}
		if done {
			completed++
		}
	}
	return completed
}

func (c *BingoCard) matches90(pattern BingoPattern, drawn map[int64]bool) bool {
	if len(c.Numbers) != card90Rows*card90Columns {
		return false
	}
	rows := c.completedRows90(drawn)
	switch pattern {
	case BingoPatternOneLine:
		return rows >= 1
	case BingoPatternTwoLines:
		return rows >= 2
	case BingoPatternFullHouse:
		return rows == card90Rows
	}
	return false
}

// FindWinners returns the distinct owners of cards that complete the game's pattern, ascending
func FindWinners(game *BingoGame, cards []*BingoCard) []int64 {
	drawn := game.DrawnSet()
	var winners []int64
	for _, card := range cards {
		card.RuleSet = game.RuleSet
		if card.Matches(game.Pattern, drawn) {
			winners = append(winners, card.UserID)
		}
	}
	return UniqueSorted(winners)
}
