package domain

// BatchItem 是批量操作中单个窗口的结果。
type BatchItem struct {
	ProfileID string `json:"profileId"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

// BatchResult 是所有批量操作统一的结果信封。
type BatchResult struct {
	Total        int         `json:"total"`
	SuccessCount int         `json:"successCount"`
	FailureCount int         `json:"failureCount"`
	Results      []BatchItem `json:"results"`
}

// NewBatchResult 根据逐项结果汇总计数。
func NewBatchResult(items []BatchItem) BatchResult {
	res := BatchResult{Total: len(items), Results: make([]BatchItem, 0, len(items))}
	for _, item := range items {
		if item.OK {
			res.SuccessCount++
		} else {
			res.FailureCount++
		}
		res.Results = append(res.Results, item)
	}
	return res
}

// Succeed 记录成功项。
func Succeed(id string) BatchItem { return BatchItem{ProfileID: id, OK: true} }

// Fail 记录失败项。
func Fail(id string, err error) BatchItem {
	item := BatchItem{ProfileID: id}
	if err != nil {
		item.Error = err.Error()
	}
	return item
}

func (r BatchResult) AllSucceeded() bool { return r.FailureCount == 0 }

func (r BatchResult) AllFailed() bool { return r.Total > 0 && r.SuccessCount == 0 }

func (r BatchResult) PartiallySucceeded() bool { return r.SuccessCount > 0 && r.FailureCount > 0 }

// SucceededIDs 返回成功项的窗口 ID，按输入顺序。
func (r BatchResult) SucceededIDs() []string {
	ids := make([]string, 0, r.SuccessCount)
	for _, item := range r.Results {
		if item.OK {
			ids = append(ids, item.ProfileID)
		}
	}
	return ids
}
