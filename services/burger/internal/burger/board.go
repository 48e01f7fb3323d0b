package burger

import "github.com/appetiteclub/burger/pkg/enums/orderstatus"

// BoardColumnSize caps how many order numbers a board column shows.
const BoardColumnSize = 10

// Board splits order numbers into the ready and in-progress panels of the
// feed screen. Each panel is a list of columns.
type Board struct {
	Ready      [][]int `json:"ready"`
	InProgress [][]int `json:"in_progress"`
}

func BuildBoard(summaries []OrderSummary) Board {
	var ready, inProgress []int
	for _, s := range summaries {
		if s.Status == orderstatus.Statuses.Done.Code() {
			ready = append(ready, s.Number)
			continue
		}
		inProgress = append(inProgress, s.Number)
	}

	return Board{
		Ready:      chunkNumbers(ready, BoardColumnSize),
		InProgress: chunkNumbers(inProgress, BoardColumnSize),
	}
}

func chunkNumbers(numbers []int, size int) [][]int {
	chunks := make([][]int, 0, (len(numbers)+size-1)/size)
	for i := 0; i < len(numbers); i += size {
		end := i + size
		if end > len(numbers) {
			end = len(numbers)
		}
		chunks = append(chunks, numbers[i:end])
	}
	return chunks
}
