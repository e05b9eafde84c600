package layout

import (
	"context"
	"math"
	"sync"
)

// 标题自适应宽度：在给定最大字号下测量内容宽度，按可用宽度等比缩小。

const (
	maxFitIterations = 8
	minFitScale      = 0.0001
)

// Measure 返回内容在 scale 倍最大字号下渲染的宽度（mm）。
type Measure func(scale float64) float64

// FitResult 是一次自适应计算的结果。
type FitResult struct {
	Scale  float64 `json:"scale"`
	SizeMm float64 `json:"sizeMm"`
}

// FitToWidth 根据当前试算比例下的测量宽度计算下一步的缩放比例。
//
//	needed = measured / currentScale
//	next   = min(1, available / max(needed, 1))
//
// 结果截断到 4 位小数，且不小于 0.0001。
func FitToWidth(measured, currentScale, available float64) float64 {
	if currentScale <= 0 {
		currentScale = 1
	}
	needed := measured / currentScale
	next := math.Min(1, math.Max(0, available)/math.Max(needed, 1))
	return math.Max(minFitScale, floorTo(next, 4))
}

// AutoScale 反复测量直到比例稳定，返回比例与有效字号（0.1mm 精度，不超过 maxMm）。
// fitToWidth 关闭时直接返回最大字号。
func AutoScale(maxMm, available float64, fitToWidth bool, measure Measure) FitResult {
	if !fitToWidth || measure == nil {
		return FitResult{Scale: 1, SizeMm: maxMm}
	}
	scale := 1.0
	for i := 0; i < maxFitIterations; i++ {
		next := FitToWidth(measure(scale), scale, available)
		if next == scale {
			break
		}
		scale = next
	}
	return FitResult{Scale: scale, SizeMm: effectiveSize(maxMm, scale)}
}

func effectiveSize(maxMm, scale float64) float64 {
	return math.Min(maxMm, roundTo(maxMm*scale, 1))
}

// AutoFitter 维护一段标题内容的自适应状态。内容、最大字号、开关或容器宽度
// 任一变化都会重新计算，并把有效字号通知给 listener。
// 宽度变化可以通过 Watch 从通知通道接收；Close 之后的通知会被忽略。
type AutoFitter struct {
	notifyMu sync.Mutex // 串行化监听回调，Close 返回后不再回调
	mu       sync.Mutex
	maxMm    float64
	fit      bool
	width    float64
	measure  Measure
	listener func(FitResult)
	last     FitResult
	closed   bool
}

// NewAutoFitter 创建自适应器。measure 以比例为参数测量当前内容宽度。
// listener 在通知锁内串行调用，不能在回调里再调用本 AutoFitter 的方法。
func NewAutoFitter(maxMm float64, fitToWidth bool, measure Measure, listener func(FitResult)) *AutoFitter {
	return &AutoFitter{
		maxMm:    maxMm,
		fit:      fitToWidth,
		measure:  measure,
		listener: listener,
		last:     FitResult{Scale: 1, SizeMm: maxMm},
	}
}

// SetContent 更新内容测量函数。
func (a *AutoFitter) SetContent(measure Measure) {
	a.update(func() { a.measure = measure })
}

// SetMax 更新最大字号。
func (a *AutoFitter) SetMax(maxMm float64) {
	a.update(func() { a.maxMm = maxMm })
}

// SetFitToWidth 切换自适应开关。
func (a *AutoFitter) SetFitToWidth(fit bool) {
	a.update(func() { a.fit = fit })
}

// Resize 更新可用宽度。
func (a *AutoFitter) Resize(width float64) {
	a.update(func() { a.width = width })
}

// Result 返回最近一次计算结果。
func (a *AutoFitter) Result() FitResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// Watch 消费宽度通知直到 ctx 结束、通道关闭或 Close 被调用。
func (a *AutoFitter) Watch(ctx context.Context, widths <-chan float64) {
	for {
		select {
		case <-ctx.Done():
			return
		case w, ok := <-widths:
			if !ok {
				return
			}
			a.Resize(w)
			if a.isClosed() {
				return
			}
		}
	}
}

// Close 停止后续计算与通知。
func (a *AutoFitter) Close() {
	a.notifyMu.Lock()
	defer a.notifyMu.Unlock()
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
}

func (a *AutoFitter) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

func (a *AutoFitter) update(mutate func()) {
	a.notifyMu.Lock()
	defer a.notifyMu.Unlock()

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	mutate()
	res := AutoScale(a.maxMm, a.width, a.fit, a.measure)
	a.last = res
	listener := a.listener
	a.mu.Unlock()

	if listener != nil {
		listener(res)
	}
}
