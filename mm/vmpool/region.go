package vmpool

// RegionInfo records one reserved window inside a VM pool's virtual range:
// [Start, Start+Size). Index 0 of a pool's list is always the self-descriptor
// of the frame the list itself lives in.
type RegionInfo struct {
	Start uint32
	Size  uint32
}
