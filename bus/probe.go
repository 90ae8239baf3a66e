package bus

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// ProbeConfig configures the fetch/data locality probe.
type ProbeConfig struct {
	Sets          int
	Associativity int
	BlockSize     int
}

// DefaultProbeConfig is a modest 64-set, 4-way, 64-byte-line probe —
// enough to report locality trends without pretending to model a real
// cache's latency.
func DefaultProbeConfig() ProbeConfig {
	return ProbeConfig{Sets: 64, Associativity: 4, BlockSize: 64}
}

// ProbeStats reports hit/miss counts observed by a Probe.
type ProbeStats struct {
	FetchHits, FetchMisses uint64
	DataHits, DataMisses   uint64
}

// Probe decorates a Bus with a pair of tag-only directories (one for
// instruction fetch, one for data accesses) built on the same
// akita/mem/cache directory and LRU-victim-finder primitives the
// teacher's timing/cache package uses for its L1 model. Unlike that
// model, Probe carries no latency: it exists purely to report locality
// across HARTs sharing one bus in a multi-HART system.Machine, so it
// never touches the wrapped Bus's data path beyond pass-through.
type Probe struct {
	Bus
	config   ProbeConfig
	fetchDir *akitacache.DirectoryImpl
	dataDir  *akitacache.DirectoryImpl
	stats    ProbeStats
}

// NewProbe wraps inner with a locality probe using config.
func NewProbe(inner Bus, config ProbeConfig) *Probe {
	newDir := func() *akitacache.DirectoryImpl {
		return akitacache.NewDirectory(
			config.Sets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		)
	}
	return &Probe{
		Bus:      inner,
		config:   config,
		fetchDir: newDir(),
		dataDir:  newDir(),
	}
}

// Stats returns a snapshot of the observed hit/miss counts.
func (p *Probe) Stats() ProbeStats {
	return p.stats
}

func (p *Probe) observe(dir *akitacache.DirectoryImpl, addr uint64, hit, miss *uint64) {
	blockAddr := (addr / uint64(p.config.BlockSize)) * uint64(p.config.BlockSize)
	block := dir.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		*hit++
		dir.Visit(block)
		return
	}
	*miss++
	victim := dir.FindVictim(blockAddr)
	if victim == nil {
		return
	}
	victim.Tag = blockAddr
	victim.IsValid = true
	dir.Visit(victim)
}

// ReadFetch performs a Read while recording the access in the
// instruction-fetch locality directory. HARTs should call this for
// program-counter-driven fetches and plain Read for data accesses.
func (p *Probe) ReadFetch(addr uint64, width Width) (uint64, error) {
	p.observe(p.fetchDir, addr, &p.stats.FetchHits, &p.stats.FetchMisses)
	return p.Bus.Read(addr, width)
}

// Read implements Bus, recording the access as a data access.
func (p *Probe) Read(addr uint64, width Width) (uint64, error) {
	p.observe(p.dataDir, addr, &p.stats.DataHits, &p.stats.DataMisses)
	return p.Bus.Read(addr, width)
}

// Write implements Bus, recording the access as a data access.
func (p *Probe) Write(addr uint64, value uint64, width Width) error {
	p.observe(p.dataDir, addr, &p.stats.DataHits, &p.stats.DataMisses)
	return p.Bus.Write(addr, value, width)
}
