package collective

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func TestNewGroup(t *testing.T) {
	if _, err := NewGroup(0); !errors.Is(err, ErrRankOutOfRange) {
		t.Errorf("NewGroup(0) = %v; want ErrRankOutOfRange", err)
	}
	g, err := NewGroup(3)
	if err != nil {
		t.Fatal(err)
	}
	for _, rank := range []int{-1, 3} {
		if _, err := g.Comm(rank); !errors.Is(err, ErrRankOutOfRange) {
			t.Errorf("Comm(%d) = %v; want ErrRankOutOfRange", rank, err)
		}
	}
	c, err := g.Comm(2)
	if err != nil {
		t.Fatal(err)
	}
	if c.Rank() != 2 || c.Size() != 3 {
		t.Errorf("Comm(2) reports rank %d size %d", c.Rank(), c.Size())
	}
}

func TestAllGather_VariableCounts(t *testing.T) {
	const size, rounds = 4, 5
	g, err := NewGroup(size)
	if err != nil {
		t.Fatal(err)
	}
	// Rank r contributes r+1 values, so the last rank holds the largest share.
	total := 0
	for r := 0; r < size; r++ {
		total += r + 1
	}

	results := make([][]float64, size)
	eg, ctx := errgroup.WithContext(context.Background())
	for rank := 0; rank < size; rank++ {
		comm, err := g.Comm(rank)
		if err != nil {
			t.Fatal(err)
		}
		results[rank] = make([]float64, total)
		dst := results[rank]
		eg.Go(func() error {
			local := make([]float64, comm.Rank()+1)
			for round := 0; round < rounds; round++ {
				for i := range local {
					local[i] = float64(round*100 + comm.Rank()*10 + i)
				}
				if err := comm.AllGather(ctx, local, dst); err != nil {
					return err
				}
				// Everyone sees the same round before anyone moves on to the next.
				want := float64(round * 100)
				if dst[0] != want {
					return errors.New("rank saw data from another round")
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}

	var want []float64
	for r := 0; r < size; r++ {
		for i := 0; i <= r; i++ {
			want = append(want, float64((rounds-1)*100+r*10+i))
		}
	}
	for rank, got := range results {
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("rank %d: dst[%d] = %v; want %v", rank, i, got[i], want[i])
			}
		}
	}
	if g.Generation() != rounds {
		t.Errorf("Generation() = %d; want %d", g.Generation(), rounds)
	}
}

func TestAllGather_SingleRank(t *testing.T) {
	g, _ := NewGroup(1)
	dst := make([]float64, 2)
	if err := g.AllGather(context.Background(), 0, []float64{1, 2}, dst); err != nil {
		t.Fatal(err)
	}
	if dst[0] != 1 || dst[1] != 2 {
		t.Errorf("dst = %v", dst)
	}
}

func TestAllGather_LocalIsCopied(t *testing.T) {
	g, _ := NewGroup(1)
	local := []float64{7}
	dst := make([]float64, 1)
	if err := g.AllGather(context.Background(), 0, local, dst); err != nil {
		t.Fatal(err)
	}
	local[0] = 8
	if dst[0] != 7 {
		t.Errorf("dst aliases local: %v", dst)
	}
}

func TestAllGather_WrongDestination(t *testing.T) {
	g, _ := NewGroup(1)
	err := g.AllGather(context.Background(), 0, []float64{1, 2, 3}, make([]float64, 2))
	if !errors.Is(err, ErrBufferSize) {
		t.Errorf("AllGather = %v; want ErrBufferSize", err)
	}
}

func TestAllGather_MissingRankBlocksUntilCancelled(t *testing.T) {
	g, _ := NewGroup(2)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := g.AllGather(ctx, 0, []float64{1}, make([]float64, 2))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("AllGather = %v; want context.DeadlineExceeded", err)
	}
	if g.Generation() != 0 {
		t.Error("round completed without rank 1")
	}

	// The cancelled contribution is still recorded for this round.
	err = g.AllGather(context.Background(), 0, []float64{1}, make([]float64, 2))
	if !errors.Is(err, ErrAlreadyContributed) {
		t.Errorf("second contribution = %v; want ErrAlreadyContributed", err)
	}

	// Rank 1 closes the round.
	dst := make([]float64, 2)
	if err := g.AllGather(context.Background(), 1, []float64{2}, dst); err != nil {
		t.Fatal(err)
	}
	if dst[0] != 1 || dst[1] != 2 {
		t.Errorf("dst = %v; want [1 2]", dst)
	}
}

func TestBarrier(t *testing.T) {
	const size = 3
	g, _ := NewGroup(size)
	var eg errgroup.Group
	for rank := 0; rank < size; rank++ {
		c, _ := g.Comm(rank)
		eg.Go(func() error {
			for i := 0; i < 10; i++ {
				if err := c.Barrier(context.Background()); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}
	if g.Generation() != 10 {
		t.Errorf("Generation() = %d; want 10", g.Generation())
	}
}

func BenchmarkAllGather(b *testing.B) {
	const size = 4
	g, _ := NewGroup(size)
	local := make([]float64, 1000)
	b.ResetTimer()
	var eg errgroup.Group
	for rank := 0; rank < size; rank++ {
		c, _ := g.Comm(rank)
		eg.Go(func() error {
			dst := make([]float64, size*len(local))
			for i := 0; i < b.N; i++ {
				if err := c.AllGather(context.Background(), local, dst); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		b.Fatal(err)
	}
}
