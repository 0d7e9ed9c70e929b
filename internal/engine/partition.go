package engine

// Partition splits [0, total) into up to n contiguous, non-overlapping
// chunks of near-equal size. The last chunk absorbs the division
// remainder. When total < n the split degenerates to fewer, 1-byte-min
// chunks rather than emitting empty ones.
func Partition(total int64, n int) []*Chunk {
	if total <= 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	if int64(n) > total {
		n = int(total)
	}

	base := total / int64(n)
	chunks := make([]*Chunk, 0, n)

	var offset int64
	for i := 0; i < n; i++ {
		length := base
		if i == n-1 {
			length = total - offset // remainder lands here
		}
		chunks = append(chunks, &Chunk{
			Index:  i,
			Offset: offset,
			Length: length,
		})
		offset += length
	}

	return chunks
}
