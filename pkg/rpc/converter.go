package rpc

import (
	"github.com/example/easyfs/pkg/api"
	"github.com/example/easyfs/pkg/fs"
	"github.com/example/easyfs/pkg/kernel"
)

// StatToProto converts an fstat result to its message form
func StatToProto(st fs.Stat) *api.Stat {
	return &api.Stat{
		Dev:   st.Dev,
		Ino:   st.Ino,
		Mode:  uint32(st.Mode),
		Nlink: st.Nlink,
	}
}

// ProtoToStat converts a Stat message back. A nil message yields the zero Stat.
func ProtoToStat(st *api.Stat) fs.Stat {
	if st == nil {
		return fs.Stat{}
	}
	return fs.Stat{
		Dev:   st.Dev,
		Ino:   st.Ino,
		Mode:  fs.StatMode(st.Mode),
		Nlink: st.Nlink,
	}
}

// FSStatToProto converts filesystem usage to its message form
func FSStatToProto(st fs.FSStat) *api.FSStat {
	return &api.FSStat{
		BlockSize:     st.BlockSize,
		TotalBlocks:   st.TotalBlocks,
		DataBlocks:    st.DataBlocks,
		FreeBlocks:    st.FreeBlocks,
		TotalFiles:    st.TotalFiles,
		FreeFiles:     st.FreeFiles,
		NameMaxLength: st.NameMaxLength,
	}
}

// ProtoToFSStat converts an FSStat message back
func ProtoToFSStat(st *api.FSStat) fs.FSStat {
	if st == nil {
		return fs.FSStat{}
	}
	return fs.FSStat{
		BlockSize:     st.BlockSize,
		TotalBlocks:   st.TotalBlocks,
		DataBlocks:    st.DataBlocks,
		FreeBlocks:    st.FreeBlocks,
		TotalFiles:    st.TotalFiles,
		FreeFiles:     st.FreeFiles,
		NameMaxLength: st.NameMaxLength,
	}
}

// HardLinksToProto converts the hard-link table dump
func HardLinksToProto(links []kernel.HardLink) []*api.HardLink {
	out := make([]*api.HardLink, len(links))
	for i, l := range links {
		out[i] = &api.HardLink{InodeId: l.InodeID, Count: l.Count}
	}
	return out
}

// ProtoToHardLinks converts hard-link rows back
func ProtoToHardLinks(links []*api.HardLink) []kernel.HardLink {
	out := make([]kernel.HardLink, 0, len(links))
	for _, l := range links {
		if l == nil {
			continue
		}
		out = append(out, kernel.HardLink{InodeID: l.InodeId, Count: l.Count})
	}
	return out
}
