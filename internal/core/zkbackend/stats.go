package zkbackend

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/axialabsresearch/frostgate-zkip/pkg/types"
)

// ==================== Prometheus 指标 ====================

var (
	proofsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zkip_proofs_total",
			Help: "证明生成总次数（按结果分类）",
		},
		[]string{"result"},
	)

	verificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zkip_verifications_total",
			Help: "证明验证总次数（按结果分类）",
		},
		[]string{"result"},
	)

	provingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "zkip_proving_duration_seconds",
			Help:    "证明生成耗时分布",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	verificationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "zkip_verification_duration_seconds",
			Help:    "证明验证耗时分布",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
	)

	cacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zkip_cache_requests_total",
			Help: "缓存查找总次数（按缓存名与结果分类）",
		},
		[]string{"cache", "result"},
	)
)

func init() {
	prometheus.MustRegister(proofsTotal)
	prometheus.MustRegister(verificationsTotal)
	prometheus.MustRegister(provingDuration)
	prometheus.MustRegister(verificationDuration)
	prometheus.MustRegister(cacheRequestsTotal)
}

// ==================== 统计记录器 ====================

// StatsRecorder 证明/验证统计记录器
//
// 🎯 **核心职责**：
// - 维护生命周期内单调递增的成功/失败计数
// - 用增量法维护平均耗时，不保留逐次耗时明细
// - 同步更新Prometheus指标
//
// ⚠️ **注意事项**：
// - 只有成功操作计入总数和均值，失败单独计数
// - 缓存命中不经过本记录器，均值只反映真实计算
type StatsRecorder struct {
	mu sync.Mutex

	totalProofs        uint64
	totalVerifications uint64
	totalFailures      uint64

	avgProvingTime      time.Duration
	avgVerificationTime time.Duration
}

// NewStatsRecorder 创建统计记录器
func NewStatsRecorder() *StatsRecorder {
	return &StatsRecorder{}
}

// RecordProof 记录一次证明生成
//
// 成功时更新总数与平均耗时，失败时只累加失败计数。
func (s *StatsRecorder) RecordProof(duration time.Duration, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !success {
		s.totalFailures++
		proofsTotal.WithLabelValues("failure").Inc()
		return
	}

	s.totalProofs++
	// 增量均值更新：mean += (x - mean) / n
	s.avgProvingTime += (duration - s.avgProvingTime) / time.Duration(s.totalProofs)

	proofsTotal.WithLabelValues("success").Inc()
	provingDuration.Observe(duration.Seconds())
}

// RecordVerification 记录一次证明验证
//
// success 表示验证过程正常完成（无论结论是有效还是无效）。
func (s *StatsRecorder) RecordVerification(duration time.Duration, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !success {
		s.totalFailures++
		verificationsTotal.WithLabelValues("failure").Inc()
		return
	}

	s.totalVerifications++
	s.avgVerificationTime += (duration - s.avgVerificationTime) / time.Duration(s.totalVerifications)

	verificationsTotal.WithLabelValues("success").Inc()
	verificationDuration.Observe(duration.Seconds())
}

// Snapshot 返回当前统计快照
func (s *StatsRecorder) Snapshot() types.ZkStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return types.ZkStats{
		TotalProofs:         s.totalProofs,
		TotalVerifications:  s.totalVerifications,
		TotalFailures:       s.totalFailures,
		AvgProvingTime:      s.avgProvingTime,
		AvgVerificationTime: s.avgVerificationTime,
	}
}
