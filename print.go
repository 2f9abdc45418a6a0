package atmsim

import (
	"fmt"
	"io"
)

// Print writes a human-readable dump of the configuration and derived
// state to out, one rank at a time behind the coordinator's barrier,
// grounded on the original implementation's mpi_atm_sim::print — spec.md
// §6's print(stream) operation.
func (s *Simulator) Print(out io.Writer) {
	c := s.Config
	rank, ntask := s.Coordinator.Rank(), s.Coordinator.NTask()

	for i := 0; i < ntask; i++ {
		s.Coordinator.Barrier()
		if rank != i {
			continue
		}
		fmt.Fprintf(out, "%d : cachedir %s\n", rank, c.CacheDir)
		fmt.Fprintf(out, "%d : ntask = %d\n", rank, ntask)
		fmt.Fprintf(out, "%d : verbosity = %d, key1 = %d, key2 = %d, counter1 = %d, counter2 = %d\n",
			rank, c.Verbosity, c.Key1, c.Key2, c.Counter1, c.Counter2)
		fmt.Fprintf(out, "%d : azmin = %g, azmax = %g, elmin = %g, elmax = %g, tmin = %g, tmax = %g\n",
			rank, c.AzMin, c.AzMax, c.ElMin, c.ElMax, c.TMin, c.TMax)
		fmt.Fprintf(out, "%d : lmin_center = %g, lmax_center = %g, w_center = %g, w_sigma = %g, wdir_center = %g, wdir_sigma = %g, z0_center = %g, z0_sigma = %g, T0_center = %g, T0_sigma = %g\n",
			rank, c.Lmin.Center, c.Lmax.Center, c.W.Center, c.W.Sigma, c.Wdir.Center, c.Wdir.Sigma, c.Z0.Center, c.Z0.Sigma, c.T0.Center, c.T0.Sigma)

		if s.ready {
			fmt.Fprintf(out, "%d : drawn lmin = %g, lmax = %g, w = %g, wdir = %g, z0 = %g, T0 = %g, z0inv = %g\n",
				rank, s.params.Lmin, s.params.Lmax, s.params.W, s.params.Wdir, s.params.Z0, s.params.T0, s.params.Z0Inv)
			fmt.Fprintf(out, "%d : nn = %d, nelem = %d, nx = %d, ny = %d, nz = %d, maxdist = %g\n",
				rank, s.grid.NN, s.ci.Nelem, s.grid.NX, s.grid.NY, s.grid.NZ, s.grid.MaxDist)
			fmt.Fprintf(out, "%d : wx = %g, wy = %g, wz = %g\n", rank, s.params.Wx, s.params.Wy, s.params.Wz)
		}
	}
	s.Coordinator.Barrier()
}
