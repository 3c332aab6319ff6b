package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// TaskID is the deterministic identity of a task instance.
//
// It is derived solely from the task family and canonicalized parameters:
// identical family+parameters always produce the same TaskID, across
// processes and parameter declaration orders. Deriving an identity never
// invokes user run logic.
type TaskID string

func (id TaskID) String() string { return string(id) }

// idHashLen is the number of hex characters of the parameter digest kept
// in the rendered identity.
const idHashLen = 10

// computeID derives "<family>_<digest>" from the canonical parameter
// encoding. All map keys are sorted and every field is length-prefixed so
// distinct parameter sets cannot collide through concatenation.
func computeID(family string, params map[string]any) (TaskID, error) {
	if family == "" {
		return "", constructionf("task family is empty")
	}

	hasher := sha256.New()

	writeField := func(data []byte) {
		length := uint64(len(data))
		lengthBytes := []byte{
			byte(length >> 56),
			byte(length >> 48),
			byte(length >> 40),
			byte(length >> 32),
			byte(length >> 24),
			byte(length >> 16),
			byte(length >> 8),
			byte(length),
		}
		hasher.Write(lengthBytes)
		hasher.Write(data)
	}

	writeField([]byte(family))

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	writeField([]byte{byte(len(keys))})
	for _, k := range keys {
		encoded, err := json.Marshal(params[k])
		if err != nil {
			return "", constructionf("parameter %q is not serializable: %v", k, err)
		}
		writeField([]byte(k))
		writeField(encoded)
	}

	sum := hasher.Sum(nil)
	digest := hex.EncodeToString(sum)[:idHashLen]
	return TaskID(fmt.Sprintf("%s_%s", family, digest)), nil
}
