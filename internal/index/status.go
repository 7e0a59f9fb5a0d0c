package index

// Status mirrors the node's per-block validation and storage flags.
type Status uint32

const (
	StatusValidHeader       Status = 1
	StatusValidTree         Status = 2
	StatusValidTransactions Status = 3
	StatusValidChain        Status = 4
	StatusValidScripts      Status = 5
	StatusValidMask         Status = StatusValidHeader | StatusValidTree | StatusValidTransactions | StatusValidChain | StatusValidScripts

	StatusHaveData    Status = 8
	StatusHaveUndo    Status = 16
	StatusFailedValid Status = 32
	StatusFailedChild Status = 64
	StatusOptWitness  Status = 128

	StatusFailedMask = StatusFailedValid | StatusFailedChild
)

func (s Status) HasData() bool { return s&StatusHaveData != 0 }

func (s Status) HasUndo() bool { return s&StatusHaveUndo != 0 }

func (s Status) Failed() bool { return s&StatusFailedMask != 0 }

// Validity is the highest validation level reached.
func (s Status) Validity() Status { return s & StatusValidMask }
