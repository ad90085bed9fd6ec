package api

import "strconv"

// Status is the result code carried by every response.
type Status int32

const (
	Status_OK              Status = 0
	Status_ERR_NOENT       Status = 2
	Status_ERR_IO          Status = 5
	Status_ERR_BADF        Status = 9
	Status_ERR_ACCES       Status = 13
	Status_ERR_EXIST       Status = 17
	Status_ERR_NOTDIR      Status = 20
	Status_ERR_ISDIR       Status = 21
	Status_ERR_INVAL       Status = 22
	Status_ERR_FBIG        Status = 27
	Status_ERR_NOSPC       Status = 28
	Status_ERR_NAMETOOLONG Status = 63
	Status_ERR_BADSESSION  Status = 10001
	Status_ERR_NOTSUPP     Status = 10004
	Status_ERR_SERVERFAULT Status = 10006
)

var statusName = map[Status]string{
	Status_OK:              "OK",
	Status_ERR_NOENT:       "ERR_NOENT",
	Status_ERR_IO:          "ERR_IO",
	Status_ERR_BADF:        "ERR_BADF",
	Status_ERR_ACCES:       "ERR_ACCES",
	Status_ERR_EXIST:       "ERR_EXIST",
	Status_ERR_NOTDIR:      "ERR_NOTDIR",
	Status_ERR_ISDIR:       "ERR_ISDIR",
	Status_ERR_INVAL:       "ERR_INVAL",
	Status_ERR_FBIG:        "ERR_FBIG",
	Status_ERR_NOSPC:       "ERR_NOSPC",
	Status_ERR_NAMETOOLONG: "ERR_NAMETOOLONG",
	Status_ERR_NOTSUPP:     "ERR_NOTSUPP",
	Status_ERR_BADSESSION:  "ERR_BADSESSION",
	Status_ERR_SERVERFAULT: "ERR_SERVERFAULT",
}

func (s Status) String() string {
	if name, ok := statusName[s]; ok {
		return name
	}
	return strconv.Itoa(int(s))
}
