// Package esa implements the enhanced suffix array primitive used by
// internal/maxsubst (spec.md §4.1, §GLOSSARY "ESA").
//
// Given an integer sequence it produces a suffix array SA, the left/right
// interval bounds L, R and depth D of every internal node of the implicit
// generalized suffix tree, plus the total node count N. This mirrors the
// contract the original ldig delegates to the external esaxx library
// (ldigcpp/ldig/da.hpp calls esaxx(...)); here it is built from a plain
// doubling-algorithm suffix array plus Kasai's LCP array plus the standard
// bottom-up lcp-interval traversal, rather than vendoring a C++ library.
package esa

import (
	"fmt"
	"math"
	"sort"
)

// Result holds the suffix array plus the enhanced suffix array's internal
// node table. D[i] == 0 marks the root (whole-text) node; every other
// entry is an internal node of depth > 0.
type Result struct {
	SA []int32
	L  []int32
	R  []int32
	D  []int32
	N  int
}

// ErrTooLarge is returned when the input sequence exceeds what 32-bit
// suffix-array indices can address, mirroring the original esaxx's -1
// sentinel return (spec.md §7: "ESA construction returning -1 ... is
// fatal").
var ErrTooLarge = fmt.Errorf("esa: input too large for 32-bit indices")

// Build constructs the enhanced suffix array over text.
func Build(text []int32) (*Result, error) {
	n := len(text)
	if n == 0 {
		return &Result{}, nil
	}
	if n > math.MaxInt32-1 {
		return nil, ErrTooLarge
	}

	sa := suffixArray(text)
	lcp := kasaiLCP(text, sa)
	l, r, d := lcpIntervals(lcp)

	return &Result{SA: sa, L: l, R: r, D: d, N: len(d)}, nil
}

// Rank computes the rank[0..n) array from spec.md §4.1: walking i = 0..n-1
// over the suffix array, incrementing whenever the cyclic predecessor
// character changes. Used by the maximal-substring extractor to count
// left-extensions in O(1) per node via rank[R-1] - rank[L].
func Rank(text []int32, sa []int32) []int32 {
	n := len(text)
	rank := make([]int32, n)
	r := int32(0)
	for i := 0; i < n; i++ {
		if i == 0 || text[cyclicPred(sa[i], n)] != text[cyclicPred(sa[i-1], n)] {
			r++
		}
		rank[i] = r
	}
	return rank
}

func cyclicPred(pos int32, n int) int {
	p := (int(pos) + n - 1) % n
	return p
}

// suffixArray builds SA via the classic O(n log^2 n) prefix-doubling
// algorithm: ranks start as raw character values and are refined by
// comparing (rank[i], rank[i+k]) pairs, doubling k each round.
func suffixArray(text []int32) []int32 {
	n := len(text)
	sa := make([]int32, n)
	rank := make([]int32, n)
	tmp := make([]int32, n)
	for i := 0; i < n; i++ {
		sa[i] = int32(i)
		rank[i] = text[i]
	}

	less := func(k int) func(a, b int32) bool {
		return func(a, b int32) bool {
			if rank[a] != rank[b] {
				return rank[a] < rank[b]
			}
			ra, rb := int32(-1), int32(-1)
			if int(a)+k < n {
				ra = rank[a+int32(k)]
			}
			if int(b)+k < n {
				rb = rank[b+int32(k)]
			}
			return ra < rb
		}
	}

	for k := 1; k < n; k *= 2 {
		cmp := less(k)
		sort.Slice(sa, func(i, j int) bool { return cmp(sa[i], sa[j]) })

		tmp[sa[0]] = 0
		for i := 1; i < n; i++ {
			tmp[sa[i]] = tmp[sa[i-1]]
			if cmp(sa[i-1], sa[i]) {
				tmp[sa[i]]++
			}
		}
		copy(rank, tmp)
		if rank[sa[n-1]] == int32(n-1) {
			break
		}
	}
	return sa
}

// kasaiLCP computes lcp[i] = length of the longest common prefix between
// SA[i-1] and SA[i], with lcp[0] = 0.
func kasaiLCP(text []int32, sa []int32) []int32 {
	n := len(text)
	rank := make([]int32, n)
	for i, s := range sa {
		rank[s] = int32(i)
	}
	lcp := make([]int32, n)
	h := 0
	for i := 0; i < n; i++ {
		if rank[i] > 0 {
			j := int(sa[rank[i]-1])
			for i+h < n && j+h < n && text[i+h] == text[j+h] {
				h++
			}
			lcp[rank[i]] = int32(h)
			if h > 0 {
				h--
			}
		} else {
			h = 0
		}
	}
	return lcp
}

type lcpFrame struct {
	lcp int32
	lb  int32
}

// lcpIntervals enumerates every lcp-interval of the suffix array in a
// single left-to-right pass — the standard bottom-up traversal used to
// recover suffix-tree internal nodes from a suffix array plus LCP array
// without building pointer-based tree nodes. Each interval becomes one
// row of L (left bound), R (right bound, exclusive) and D (string depth).
func lcpIntervals(lcp []int32) (L, R, D []int32) {
	n := len(lcp)
	stack := []lcpFrame{{lcp: 0, lb: 0}}

	emit := func(lcpv, lb, rb int32) {
		L = append(L, lb)
		R = append(R, rb+1)
		D = append(D, lcpv)
	}

	for i := 1; i < n; i++ {
		lb := int32(i - 1)
		for lcp[i] < stack[len(stack)-1].lcp {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			emit(top.lcp, top.lb, int32(i-1))
			lb = top.lb
		}
		if lcp[i] > stack[len(stack)-1].lcp {
			stack = append(stack, lcpFrame{lcp: lcp[i], lb: lb})
		}
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		emit(top.lcp, top.lb, int32(n-1))
	}
	return
}
