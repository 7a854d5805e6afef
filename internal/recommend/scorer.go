// Package recommend ranks books related to a target book from co-cart,
// co-order and rating signals. Everything here is pure: callers load a
// Snapshot and a catalog view, the package only does arithmetic and ordering.
package recommend

import "sort"

// Signal weights.
const (
	CoCartWeight      = 3.0
	CoOrderWeight     = 4.0
	SimilarityWeight  = 2.0
	HighlyRatedWeight = 0.5

	// LikedScore is the minimum score that counts as "liked" for similarity.
	LikedScore = 4
	// HighlyRatedAverage is the minimum average for the highly-rated fallback.
	HighlyRatedAverage = 4.0
)

// RatingStat aggregates ratings of one book.
type RatingStat struct {
	Count int
	Sum   int
}

// Average returns Sum/Count, or 0 without ratings.
func (r RatingStat) Average() float64 {
	if r.Count == 0 {
		return 0
	}
	return float64(r.Sum) / float64(r.Count)
}

// Snapshot is a read-only view of the signals for one target book.
type Snapshot struct {
	// CoCart counts, per book, appearances in carts that also hold the target.
	CoCart map[string]int
	// CoOrder counts, per book, order lines of customers who ordered the target.
	CoOrder map[string]int
	// LikedTogether aggregates liked ratings (>= LikedScore) given by customers
	// who also liked the target.
	LikedTogether map[string]RatingStat
	// Ratings aggregates all ratings per book.
	Ratings map[string]RatingStat
	// Popularity counts cart plus order appearances per book.
	Popularity map[string]int
}

// Candidate is a scored book.
type Candidate struct {
	BookID string
	Score  float64
}

// Catalog answers stock questions about books. Books missing from the
// catalog are treated as unavailable.
type Catalog interface {
	InStock(bookID string) bool
	// IDs lists every book in the catalog.
	IDs() []string
}

// Score accumulates the weighted signals into one ranked list. The target is
// never included. When fewer than limit books are scored, highly rated books
// are added. Ties are ordered by ascending book ID.
func Score(target string, limit int, s Snapshot) []Candidate {
	scores := make(map[string]float64)

	for id, freq := range s.CoCart {
		scores[id] += float64(freq) * CoCartWeight
	}
	for id, freq := range s.CoOrder {
		scores[id] += float64(freq) * CoOrderWeight
	}
	for id, stat := range s.LikedTogether {
		// count x average is the score sum.
		scores[id] += float64(stat.Sum) * SimilarityWeight
	}
	delete(scores, target)

	if len(scores) < limit {
		for id, stat := range s.Ratings {
			if id == target || stat.Count < 1 || stat.Average() < HighlyRatedAverage {
				continue
			}
			if _, scored := scores[id]; scored {
				continue
			}
			scores[id] = float64(stat.Sum) * HighlyRatedWeight
		}
	}

	out := make([]Candidate, 0, len(scores))
	for id, score := range scores {
		out = append(out, Candidate{BookID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].BookID < out[j].BookID
	})
	return out
}

// Recommend returns at most limit book IDs for target: the top 2*limit
// scored candidates filtered to in-stock books, topped up with the most
// popular in-stock books.
func Recommend(target string, limit int, s Snapshot, catalog Catalog) []string {
	if limit <= 0 {
		return []string{}
	}

	ranked := Score(target, limit, s)
	if len(ranked) > 2*limit {
		ranked = ranked[:2*limit]
	}

	picked := make([]string, 0, limit)
	seen := map[string]bool{target: true}
	for _, c := range ranked {
		if len(picked) == limit {
			break
		}
		if !catalog.InStock(c.BookID) {
			continue
		}
		picked = append(picked, c.BookID)
		seen[c.BookID] = true
	}

	if len(picked) < limit {
		picked = append(picked, Popular(catalog, s.Popularity, seen, limit-len(picked))...)
	}
	return picked
}

// Popular returns up to n in-stock catalog books not in exclude, ordered by
// popularity descending then ID ascending.
func Popular(catalog Catalog, popularity map[string]int, exclude map[string]bool, n int) []string {
	if n <= 0 {
		return nil
	}
	var pool []string
	for _, id := range catalog.IDs() {
		if exclude[id] || !catalog.InStock(id) {
			continue
		}
		pool = append(pool, id)
	}
	sort.Slice(pool, func(i, j int) bool {
		pi, pj := popularity[pool[i]], popularity[pool[j]]
		if pi != pj {
			return pi > pj
		}
		return pool[i] < pool[j]
	})
	if len(pool) > n {
		pool = pool[:n]
	}
	return pool
}

// StockMap is a Catalog backed by book ID to stock quantity.
type StockMap map[string]int

// InStock reports whether bookID has a positive quantity.
func (m StockMap) InStock(bookID string) bool {
	return m[bookID] > 0
}

// IDs lists the books in the map in no particular order.
func (m StockMap) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids
}
