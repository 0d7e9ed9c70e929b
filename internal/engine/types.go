package engine

type ChunkStatus int

const (
	ChunkPending ChunkStatus = iota
	ChunkInFlight
	ChunkDone
	ChunkFailed
)

// Chunk is one contiguous byte range of a download, fetched by a single
// worker. Chunks never overlap and together cover [0, total) exactly.
type Chunk struct {
	Index    int
	Offset   int64
	Length   int64
	Received int64
	Status   ChunkStatus
	Attempts int
}

type chunkResult struct {
	chunk *Chunk
	err   error
}
