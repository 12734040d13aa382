package transientnd

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zlib"
)

// Checkpoint format, little-endian:
//
//	uint32 magic "TNDC", uint32 version,
//	uint32 axis count, uint32 channel count,
//	per axis: uint32 size, origBorderSize, borderSize, offset,
//	zlib-compressed float64 buffer.
//
// Filters are not serialized; a loaded block can Develop immediately but
// needs ConfigureFilter before further Put calls.
const (
	checkpointMagic   = uint32(0x544e4443) // "TNDC"
	checkpointVersion = uint32(1)
)

var ErrCheckpointCorrupted = errors.New("transientnd: corrupted checkpoint")

// SaveCheckpoint writes the complete accumulation state to path.
func (b *Block) SaveCheckpoint(path string) error {
	if exp := b.elemCount(); len(b.buf) != exp {
		return fmt.Errorf("transientnd: buffer length mismatch: got %d, expected %d", len(b.buf), exp)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	head := []uint32{checkpointMagic, checkpointVersion, uint32(len(b.size)), uint32(b.channelCount)}
	for j := range b.size {
		head = append(head,
			uint32(b.size[j]),
			uint32(b.origBorderSize[j]),
			uint32(b.borderSize[j]),
			uint32(b.offset[j]))
	}
	if err := binary.Write(w, binary.LittleEndian, head); err != nil {
		return err
	}

	zw := zlib.NewWriter(w)
	if err := binary.Write(zw, binary.LittleEndian, b.buf); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_ = f.Sync() // optional
	return nil
}

// LoadCheckpoint restores a block saved with SaveCheckpoint.
func LoadCheckpoint(path string) (*Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var fixed [4]uint32
	if err := binary.Read(r, binary.LittleEndian, &fixed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCheckpointCorrupted, err)
	}
	if fixed[0] != checkpointMagic {
		return nil, fmt.Errorf("%w: bad magic %#x", ErrCheckpointCorrupted, fixed[0])
	}
	if fixed[1] != checkpointVersion {
		return nil, fmt.Errorf("transientnd: unsupported checkpoint version %d", fixed[1])
	}
	ndim := int(fixed[2])
	channelCount := int(fixed[3])
	if ndim < 1 || ndim > MaxDims || channelCount < 1 {
		return nil, fmt.Errorf("%w: %d axes, %d channels", ErrCheckpointCorrupted, ndim, channelCount)
	}

	b := &Block{
		channelCount:   channelCount,
		size:           make([]int, ndim),
		origBorderSize: make([]int, ndim),
		borderSize:     make([]int, ndim),
		borderOffset:   make([]int, ndim),
		offset:         make([]int, ndim),
		useBorder:      true,
	}
	axes := make([]uint32, 4*ndim)
	if err := binary.Read(r, binary.LittleEndian, axes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCheckpointCorrupted, err)
	}
	for j := 0; j < ndim; j++ {
		b.size[j] = int(axes[4*j])
		b.origBorderSize[j] = int(axes[4*j+1])
		b.borderSize[j] = int(axes[4*j+2])
		b.offset[j] = int(axes[4*j+3])
		if b.size[j] <= 0 || b.borderSize[j] < 0 || b.borderSize[j] > b.origBorderSize[j] {
			return nil, fmt.Errorf("%w: axis %d size=%d border=%d/%d",
				ErrCheckpointCorrupted, j, b.size[j], b.borderSize[j], b.origBorderSize[j])
		}
		b.borderOffset[j] = b.origBorderSize[j] - b.borderSize[j]
	}
	b.computeLayout()
	b.buf = make([]Real, b.elemCount())

	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCheckpointCorrupted, err)
	}
	defer zr.Close()
	if err := binary.Read(zr, binary.LittleEndian, b.buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCheckpointCorrupted, err)
	}
	DebugLog("Loaded checkpoint %s: %s", path, b)
	return b, nil
}
