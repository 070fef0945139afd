package reflection

import (
	"context"
	"errors"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

const chunkSize = 1024

// Zone is a sample together with its Fresnel zone.
type Zone struct {
	Sample
	Zone FresnelZone
}

// Solve returns a copy of samples with the specular point filled in for
// every sample that has usable line-of-sight angles. Samples are processed
// in chunks on up to workers goroutines; workers <= 0 uses GOMAXPROCS.
func Solve(ctx context.Context, samples []Sample, g Geometry, workers int) ([]Sample, int, error) {
	out := slices.Clone(samples)

	solved := make([]int, numChunks(len(out)))
	err := forEachChunk(ctx, len(out), workers, func(chunk, lo, hi int) error {
		for i := lo; i < hi; i++ {
			s := &out[i]
			s.Specular = nil
			if !s.HasGeometry() {
				continue
			}
			sp, err := SpecularPoint(s.Receiver(), *s.Observation.Azimuth, *s.Observation.Elevation, g)
			if errors.Is(err, ErrDegenerate) {
				continue
			}
			if err != nil {
				return err
			}
			s.Specular = &sp
			solved[chunk]++
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	var total int
	for _, n := range solved {
		total += n
	}
	return out, total, nil
}

// Zones computes the Fresnel zone of every sample with usable geometry.
// Samples whose geometry is degenerate are left out.
func Zones(ctx context.Context, samples []Sample, g Geometry, workers int) ([]Zone, error) {
	zones := make([]*Zone, len(samples))
	err := forEachChunk(ctx, len(samples), workers, func(_, lo, hi int) error {
		for i := lo; i < hi; i++ {
			s := samples[i]
			if !s.HasGeometry() {
				continue
			}
			fz, err := Fresnel(s.Receiver(), *s.Observation.Azimuth, *s.Observation.Elevation, g)
			if errors.Is(err, ErrDegenerate) {
				continue
			}
			if err != nil {
				return err
			}
			zones[i] = &Zone{Sample: s, Zone: fz}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]Zone, 0, len(zones))
	for _, z := range zones {
		if z != nil {
			out = append(out, *z)
		}
	}
	return out, nil
}

func numChunks(n int) int {
	return (n + chunkSize - 1) / chunkSize
}

func forEachChunk(ctx context.Context, n, workers int, fn func(chunk, lo, hi int) error) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for chunk := 0; chunk < numChunks(n); chunk++ {
		chunk := chunk
		lo := chunk * chunkSize
		hi := min(lo+chunkSize, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(chunk, lo, hi)
		})
	}
	return g.Wait()
}
