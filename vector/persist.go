package vector

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

var indexMagic = [8]byte{'S', 'I', 'M', 'R', 'I', 'V', 'F', '1'}

type indexHeader struct {
	Magic       [8]byte
	Dim         uint32
	NList       uint32
	NProbe      uint32
	Indices32   uint8
	_           [3]byte
	KMeansIters uint32
	Seed        int64
	Ntotal      uint64
}

// Save 将索引写入 path（zstd 压缩）。加速索引先转换为 CPU 副本再写出；
// 原索引随后进入 saved 状态。
func Save(ix *IVFFlat, path string) error {
	state := ix.State()
	if !state.Searchable() {
		return ErrIndexNotReady
	}
	cpu := ix
	if ix.Accelerated() {
		cpu = ix.ToCPU()
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if err := cpu.writeTo(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename index file: %w", err)
	}
	ix.setState(StateSaved)
	return nil
}

func (ix *IVFFlat) writeTo(w io.Writer) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	bw := bufio.NewWriter(zw)

	ix.mu.RLock()
	err = ix.encode(bw)
	ix.mu.RUnlock()
	if err != nil {
		zw.Close()
		return fmt.Errorf("encode index: %w", err)
	}
	if err := bw.Flush(); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// encode 调用方需持有读锁。
func (ix *IVFFlat) encode(w io.Writer) error {
	h := indexHeader{
		Magic:       indexMagic,
		Dim:         uint32(ix.dim),
		NList:       uint32(ix.opts.NList),
		NProbe:      uint32(ix.opts.NProbe),
		KMeansIters: uint32(ix.opts.KMeansIters),
		Seed:        ix.opts.Seed,
		Ntotal:      uint64(ix.ntotal),
	}
	if ix.opts.Indices32 {
		h.Indices32 = 1
	}
	le := binary.LittleEndian
	if err := binary.Write(w, le, &h); err != nil {
		return err
	}
	if err := binary.Write(w, le, ix.quantizer.data); err != nil {
		return err
	}
	for i := range ix.lists {
		l := &ix.lists[i]
		if err := binary.Write(w, le, uint64(l.size())); err != nil {
			return err
		}
		var err error
		if ix.opts.Indices32 {
			err = binary.Write(w, le, l.ids32)
		} else {
			err = binary.Write(w, le, l.ids64)
		}
		if err != nil {
			return err
		}
		if err := binary.Write(w, le, l.codes); err != nil {
			return err
		}
	}
	return nil
}

// Load 从 path 读取索引，得到 loaded 状态的 CPU 索引，不需要加速设备。
func Load(path string, options ...IVFOption) (*IVFFlat, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer zr.Close()
	return decodeIndex(bufio.NewReader(zr), options...)
}

func decodeIndex(r io.Reader, options ...IVFOption) (*IVFFlat, error) {
	le := binary.LittleEndian
	var h indexHeader
	if err := binary.Read(r, le, &h); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrCorruptIndex, err)
	}
	if h.Magic != indexMagic || h.Dim == 0 || h.NList == 0 {
		return nil, ErrCorruptIndex
	}

	ix := NewIVFFlat(int(h.Dim), IVFOptions{
		NList:       int(h.NList),
		NProbe:      int(h.NProbe),
		Indices32:   h.Indices32 == 1,
		KMeansIters: int(h.KMeansIters),
		Seed:        h.Seed,
	}, options...)
	dim := ix.dim

	centroids := make([]float32, int(h.NList)*dim)
	if err := binary.Read(r, le, centroids); err != nil {
		return nil, fmt.Errorf("%w: centroids: %v", ErrCorruptIndex, err)
	}
	q := NewFlatL2(dim, ix.device)
	q.data, q.ntotal, q.state = centroids, int64(h.NList), StatePopulated
	ix.quantizer = q

	ix.lists = make([]invList, h.NList)
	ix.dmap = make([]listPos, h.Ntotal)
	seen := uint64(0)
	for li := range ix.lists {
		var n uint64
		if err := binary.Read(r, le, &n); err != nil {
			return nil, fmt.Errorf("%w: list %d: %v", ErrCorruptIndex, li, err)
		}
		if seen+n > h.Ntotal {
			return nil, ErrCorruptIndex
		}
		seen += n
		l := &ix.lists[li]
		if ix.opts.Indices32 {
			l.ids32 = make([]int32, n)
			if err := binary.Read(r, le, l.ids32); err != nil {
				return nil, fmt.Errorf("%w: ids: %v", ErrCorruptIndex, err)
			}
		} else {
			l.ids64 = make([]int64, n)
			if err := binary.Read(r, le, l.ids64); err != nil {
				return nil, fmt.Errorf("%w: ids: %v", ErrCorruptIndex, err)
			}
		}
		l.codes = make([]float32, int(n)*dim)
		if err := binary.Read(r, le, l.codes); err != nil {
			return nil, fmt.Errorf("%w: codes: %v", ErrCorruptIndex, err)
		}
		for off := 0; off < int(n); off++ {
			row := l.id(off)
			if row < 0 || uint64(row) >= h.Ntotal {
				return nil, ErrCorruptIndex
			}
			ix.dmap[row] = listPos{list: li, offset: off}
		}
	}
	if seen != h.Ntotal {
		return nil, ErrCorruptIndex
	}
	ix.ntotal = int64(h.Ntotal)
	ix.state = StateLoaded
	return ix, nil
}
