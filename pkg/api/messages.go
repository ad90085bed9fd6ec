package api

import "google.golang.org/protobuf/encoding/protowire"

// Stat describes an open file.
type Stat struct {
	Dev   uint64
	Ino   uint64
	Mode  uint32
	Nlink uint32
}

func (s *Stat) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, s.Dev)
	b = appendUint(b, 2, s.Ino)
	b = appendUint(b, 3, uint64(s.Mode))
	b = appendUint(b, 4, uint64(s.Nlink))
	return b
}

func (s *Stat) UnmarshalWire(b []byte) error {
	*s = Stat{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			s.Dev = f.uint64()
		case 2:
			s.Ino = f.uint64()
		case 3:
			s.Mode = f.uint32()
		case 4:
			s.Nlink = f.uint32()
		}
		return nil
	})
}

// FSStat reports usage of an image.
type FSStat struct {
	BlockSize     uint32
	TotalBlocks   uint64
	DataBlocks    uint64
	FreeBlocks    uint64
	TotalFiles    uint64
	FreeFiles     uint64
	NameMaxLength uint32
}

func (st *FSStat) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, uint64(st.BlockSize))
	b = appendUint(b, 2, st.TotalBlocks)
	b = appendUint(b, 3, st.DataBlocks)
	b = appendUint(b, 4, st.FreeBlocks)
	b = appendUint(b, 5, st.TotalFiles)
	b = appendUint(b, 6, st.FreeFiles)
	b = appendUint(b, 7, uint64(st.NameMaxLength))
	return b
}

func (st *FSStat) UnmarshalWire(b []byte) error {
	*st = FSStat{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			st.BlockSize = f.uint32()
		case 2:
			st.TotalBlocks = f.uint64()
		case 3:
			st.DataBlocks = f.uint64()
		case 4:
			st.FreeBlocks = f.uint64()
		case 5:
			st.TotalFiles = f.uint64()
		case 6:
			st.FreeFiles = f.uint64()
		case 7:
			st.NameMaxLength = f.uint32()
		}
		return nil
	})
}

// HardLink is one row of the server's hard-link table.
type HardLink struct {
	InodeId uint32
	Count   uint32
}

func (h *HardLink) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, uint64(h.InodeId))
	b = appendUint(b, 2, uint64(h.Count))
	return b
}

func (h *HardLink) UnmarshalWire(b []byte) error {
	*h = HardLink{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			h.InodeId = f.uint32()
		case 2:
			h.Count = f.uint32()
		}
		return nil
	})
}

type OpenSessionRequest struct {
	ClientName string
}

func (o *OpenSessionRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, o.ClientName)
	return b
}

func (o *OpenSessionRequest) UnmarshalWire(b []byte) error {
	*o = OpenSessionRequest{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			o.ClientName = f.string()
		}
		return nil
	})
}

type OpenSessionResponse struct {
	Status    Status
	SessionId string
}

func (o *OpenSessionResponse) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, uint64(o.Status))
	b = appendString(b, 2, o.SessionId)
	return b
}

func (o *OpenSessionResponse) UnmarshalWire(b []byte) error {
	*o = OpenSessionResponse{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			o.Status = Status(f.uint64())
		case 2:
			o.SessionId = f.string()
		}
		return nil
	})
}

type CloseSessionRequest struct {
	SessionId string
}

func (c *CloseSessionRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, c.SessionId)
	return b
}

func (c *CloseSessionRequest) UnmarshalWire(b []byte) error {
	*c = CloseSessionRequest{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			c.SessionId = f.string()
		}
		return nil
	})
}

type CloseSessionResponse struct {
	Status    Status
	ClosedFds uint32
}

func (c *CloseSessionResponse) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, uint64(c.Status))
	b = appendUint(b, 2, uint64(c.ClosedFds))
	return b
}

func (c *CloseSessionResponse) UnmarshalWire(b []byte) error {
	*c = CloseSessionResponse{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			c.Status = Status(f.uint64())
		case 2:
			c.ClosedFds = f.uint32()
		}
		return nil
	})
}

type OpenRequest struct {
	SessionId string
	Name      string
	Flags     uint32
}

func (o *OpenRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, o.SessionId)
	b = appendString(b, 2, o.Name)
	b = appendUint(b, 3, uint64(o.Flags))
	return b
}

func (o *OpenRequest) UnmarshalWire(b []byte) error {
	*o = OpenRequest{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			o.SessionId = f.string()
		case 2:
			o.Name = f.string()
		case 3:
			o.Flags = f.uint32()
		}
		return nil
	})
}

type OpenResponse struct {
	Status Status
	Fd     uint32
}

func (o *OpenResponse) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, uint64(o.Status))
	b = appendUint(b, 2, uint64(o.Fd))
	return b
}

func (o *OpenResponse) UnmarshalWire(b []byte) error {
	*o = OpenResponse{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			o.Status = Status(f.uint64())
		case 2:
			o.Fd = f.uint32()
		}
		return nil
	})
}

type CloseRequest struct {
	SessionId string
	Fd        uint32
}

func (c *CloseRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, c.SessionId)
	b = appendUint(b, 2, uint64(c.Fd))
	return b
}

func (c *CloseRequest) UnmarshalWire(b []byte) error {
	*c = CloseRequest{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			c.SessionId = f.string()
		case 2:
			c.Fd = f.uint32()
		}
		return nil
	})
}

type CloseResponse struct {
	Status Status
}

func (c *CloseResponse) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, uint64(c.Status))
	return b
}

func (c *CloseResponse) UnmarshalWire(b []byte) error {
	*c = CloseResponse{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			c.Status = Status(f.uint64())
		}
		return nil
	})
}

type ReadRequest struct {
	SessionId string
	Fd        uint32
	Count     uint32
}

func (r *ReadRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, r.SessionId)
	b = appendUint(b, 2, uint64(r.Fd))
	b = appendUint(b, 3, uint64(r.Count))
	return b
}

func (r *ReadRequest) UnmarshalWire(b []byte) error {
	*r = ReadRequest{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			r.SessionId = f.string()
		case 2:
			r.Fd = f.uint32()
		case 3:
			r.Count = f.uint32()
		}
		return nil
	})
}

type ReadResponse struct {
	Status Status
	Data   []byte
	Eof    bool
}

func (r *ReadResponse) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, uint64(r.Status))
	b = appendBytes(b, 2, r.Data)
	b = appendBool(b, 3, r.Eof)
	return b
}

func (r *ReadResponse) UnmarshalWire(b []byte) error {
	*r = ReadResponse{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			r.Status = Status(f.uint64())
		case 2:
			r.Data = f.bytes()
		case 3:
			r.Eof = f.bool()
		}
		return nil
	})
}

type WriteRequest struct {
	SessionId string
	Fd        uint32
	Data      []byte
}

func (w *WriteRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, w.SessionId)
	b = appendUint(b, 2, uint64(w.Fd))
	b = appendBytes(b, 3, w.Data)
	return b
}

func (w *WriteRequest) UnmarshalWire(b []byte) error {
	*w = WriteRequest{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			w.SessionId = f.string()
		case 2:
			w.Fd = f.uint32()
		case 3:
			w.Data = f.bytes()
		}
		return nil
	})
}

type WriteResponse struct {
	Status Status
	Count  uint32
}

func (w *WriteResponse) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, uint64(w.Status))
	b = appendUint(b, 2, uint64(w.Count))
	return b
}

func (w *WriteResponse) UnmarshalWire(b []byte) error {
	*w = WriteResponse{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			w.Status = Status(f.uint64())
		case 2:
			w.Count = f.uint32()
		}
		return nil
	})
}

type FstatRequest struct {
	SessionId string
	Fd        uint32
}

func (req *FstatRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, req.SessionId)
	b = appendUint(b, 2, uint64(req.Fd))
	return b
}

func (req *FstatRequest) UnmarshalWire(b []byte) error {
	*req = FstatRequest{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			req.SessionId = f.string()
		case 2:
			req.Fd = f.uint32()
		}
		return nil
	})
}

type FstatResponse struct {
	Status Status
	Stat   *Stat
}

func (resp *FstatResponse) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, uint64(resp.Status))
	if resp.Stat != nil {
		b = appendMessage(b, 2, resp.Stat)
	}
	return b
}

func (resp *FstatResponse) UnmarshalWire(b []byte) error {
	*resp = FstatResponse{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			resp.Status = Status(f.uint64())
		case 2:
			resp.Stat = new(Stat)
			return f.message(resp.Stat)
		}
		return nil
	})
}

type LinkRequest struct {
	SessionId string
	OldName   string
	NewName   string
}

func (l *LinkRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, l.SessionId)
	b = appendString(b, 2, l.OldName)
	b = appendString(b, 3, l.NewName)
	return b
}

func (l *LinkRequest) UnmarshalWire(b []byte) error {
	*l = LinkRequest{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			l.SessionId = f.string()
		case 2:
			l.OldName = f.string()
		case 3:
			l.NewName = f.string()
		}
		return nil
	})
}

type LinkResponse struct {
	Status Status
}

func (l *LinkResponse) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, uint64(l.Status))
	return b
}

func (l *LinkResponse) UnmarshalWire(b []byte) error {
	*l = LinkResponse{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			l.Status = Status(f.uint64())
		}
		return nil
	})
}

type UnlinkRequest struct {
	SessionId string
	Name      string
}

func (u *UnlinkRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, u.SessionId)
	b = appendString(b, 2, u.Name)
	return b
}

func (u *UnlinkRequest) UnmarshalWire(b []byte) error {
	*u = UnlinkRequest{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			u.SessionId = f.string()
		case 2:
			u.Name = f.string()
		}
		return nil
	})
}

type UnlinkResponse struct {
	Status Status
}

func (u *UnlinkResponse) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, uint64(u.Status))
	return b
}

func (u *UnlinkResponse) UnmarshalWire(b []byte) error {
	*u = UnlinkResponse{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			u.Status = Status(f.uint64())
		}
		return nil
	})
}

type ListRequest struct {
	SessionId string
}

func (l *ListRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, l.SessionId)
	return b
}

func (l *ListRequest) UnmarshalWire(b []byte) error {
	*l = ListRequest{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			l.SessionId = f.string()
		}
		return nil
	})
}

type ListResponse struct {
	Status    Status
	Names     []string
	HardLinks []*HardLink
}

func (l *ListResponse) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, uint64(l.Status))
	b = appendStrings(b, 2, l.Names)
	for _, m := range l.HardLinks {
		b = appendMessage(b, 3, m)
	}
	return b
}

func (l *ListResponse) UnmarshalWire(b []byte) error {
	*l = ListResponse{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			l.Status = Status(f.uint64())
		case 2:
			l.Names = append(l.Names, f.string())
		case 3:
			m := new(HardLink)
			if err := f.message(m); err != nil {
				return err
			}
			l.HardLinks = append(l.HardLinks, m)
		}
		return nil
	})
}

type StatFSRequest struct {
	SessionId string
}

func (s *StatFSRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, s.SessionId)
	return b
}

func (s *StatFSRequest) UnmarshalWire(b []byte) error {
	*s = StatFSRequest{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			s.SessionId = f.string()
		}
		return nil
	})
}

type StatFSResponse struct {
	Status Status
	Stat   *FSStat
}

func (s *StatFSResponse) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, uint64(s.Status))
	if s.Stat != nil {
		b = appendMessage(b, 2, s.Stat)
	}
	return b
}

func (s *StatFSResponse) UnmarshalWire(b []byte) error {
	*s = StatFSResponse{}
	return walk(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			s.Status = Status(f.uint64())
		case 2:
			s.Stat = new(FSStat)
			return f.message(s.Stat)
		}
		return nil
	})
}

// GetStatus returns the status, or OK for a nil response.
func (o *OpenSessionResponse) GetStatus() Status {
	if o == nil {
		return Status_OK
	}
	return o.Status
}

// GetStatus returns the status, or OK for a nil response.
func (c *CloseSessionResponse) GetStatus() Status {
	if c == nil {
		return Status_OK
	}
	return c.Status
}

// GetStatus returns the status, or OK for a nil response.
func (o *OpenResponse) GetStatus() Status {
	if o == nil {
		return Status_OK
	}
	return o.Status
}

// GetStatus returns the status, or OK for a nil response.
func (c *CloseResponse) GetStatus() Status {
	if c == nil {
		return Status_OK
	}
	return c.Status
}

// GetStatus returns the status, or OK for a nil response.
func (r *ReadResponse) GetStatus() Status {
	if r == nil {
		return Status_OK
	}
	return r.Status
}

// GetStatus returns the status, or OK for a nil response.
func (w *WriteResponse) GetStatus() Status {
	if w == nil {
		return Status_OK
	}
	return w.Status
}

// GetStatus returns the status, or OK for a nil response.
func (resp *FstatResponse) GetStatus() Status {
	if resp == nil {
		return Status_OK
	}
	return resp.Status
}

// GetStatus returns the status, or OK for a nil response.
func (l *LinkResponse) GetStatus() Status {
	if l == nil {
		return Status_OK
	}
	return l.Status
}

// GetStatus returns the status, or OK for a nil response.
func (u *UnlinkResponse) GetStatus() Status {
	if u == nil {
		return Status_OK
	}
	return u.Status
}

// GetStatus returns the status, or OK for a nil response.
func (l *ListResponse) GetStatus() Status {
	if l == nil {
		return Status_OK
	}
	return l.Status
}

// GetStatus returns the status, or OK for a nil response.
func (s *StatFSResponse) GetStatus() Status {
	if s == nil {
		return Status_OK
	}
	return s.Status
}
