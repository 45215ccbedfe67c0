// zkbench 证明引擎基准工具
//
// 对注入的证明能力执行一批证明/验证请求，输出统计、缓存与资源快照。
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	corelog "github.com/axialabsresearch/frostgate-zkip/internal/core/infrastructure/log"
	"github.com/axialabsresearch/frostgate-zkip/internal/core/zkbackend"
	"github.com/axialabsresearch/frostgate-zkip/internal/core/zkbackend/gnarkplug"
	"github.com/axialabsresearch/frostgate-zkip/internal/core/zkbackend/testutil"
	backendiface "github.com/axialabsresearch/frostgate-zkip/pkg/interfaces/zkbackend"
	"github.com/axialabsresearch/frostgate-zkip/pkg/types"
)

// benchFlags 基准参数
type benchFlags struct {
	Requests   int
	Programs   int
	Workers    int
	Backend    string
	ProofCache bool
	Verbose    bool
}

var flags benchFlags

var rootCmd = &cobra.Command{
	Use:   "zkbench",
	Short: "ZK证明引擎基准工具",
	Long: `zkbench 对证明引擎执行一批证明和验证请求，
输出统计信息、缓存命中情况与资源使用快照。

后端选择:
  mock   计数Mock能力（默认，用于验证缓存与调度行为）
  gnark  gnark/Groth16 真实证明系统`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBench()
	},
}

func init() {
	rootCmd.Flags().IntVarP(&flags.Requests, "requests", "n", 100, "证明请求总数")
	rootCmd.Flags().IntVarP(&flags.Programs, "programs", "p", 10, "互不相同的程序数（越小缓存命中率越高）")
	rootCmd.Flags().IntVarP(&flags.Workers, "workers", "w", 0, "批量并行度（0 = 默认）")
	rootCmd.Flags().StringVarP(&flags.Backend, "backend", "b", "mock", "证明后端: mock|gnark")
	rootCmd.Flags().BoolVar(&flags.ProofCache, "proof-cache", true, "是否启用证明缓存")
	rootCmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "输出调试日志")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func runBench() error {
	logConfig := corelog.DefaultConfig()
	if flags.Verbose {
		logConfig.Level = corelog.DebugLevel
	} else {
		logConfig.Level = corelog.ErrorLevel
	}
	logger, err := corelog.New(logConfig)
	if err != nil {
		return err
	}

	var capability backendiface.ProvingCapability
	switch flags.Backend {
	case "mock":
		mock := testutil.NewCountingCapability()
		mock.Delay = 2 * time.Millisecond
		capability = mock
	case "gnark":
		capability = gnarkplug.New(logger)
	default:
		return fmt.Errorf("未知后端: %s", flags.Backend)
	}

	engineConfig := zkbackend.DefaultEngineConfig()
	engineConfig.Cache.EnableProofCache = flags.ProofCache

	engine, err := zkbackend.NewEngine(capability, nil, engineConfig, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	pterm.DefaultSection.Println("证明基准")
	pterm.Printf("后端=%s 请求=%d 程序=%d 证明缓存=%v\n",
		capability.ID(), flags.Requests, flags.Programs, flags.ProofCache)

	programs := testutil.SequentialPrograms(flags.Programs)
	requests := make([]backendiface.ProveRequest, flags.Requests)
	for i := range requests {
		requests[i] = backendiface.ProveRequest{
			Program:     programs[i%len(programs)],
			Input:       []byte(fmt.Sprintf("input-%04d", i)),
			CircuitType: types.CircuitTypeMessage,
		}
	}

	cfg := types.DefaultZkConfig()
	cfg.ParallelWorkers = flags.Workers

	ctx := context.Background()

	start := time.Now()
	results, err := engine.BatchProve(ctx, requests, cfg)
	if err != nil {
		return err
	}
	proveElapsed := time.Since(start)

	succeeded := 0
	var verifyRequests []backendiface.VerifyRequest
	for i, res := range results {
		if res.Err != nil {
			pterm.Warning.Printf("请求 #%d 失败: %v\n", i, res.Err)
			continue
		}
		succeeded++
		verifyRequests = append(verifyRequests, backendiface.VerifyRequest{
			Program: requests[i].Program,
			Proof:   res.Proof,
		})
	}

	start = time.Now()
	verifyResults, err := engine.BatchVerify(ctx, verifyRequests, cfg)
	if err != nil {
		return err
	}
	verifyElapsed := time.Since(start)

	verified := 0
	for _, res := range verifyResults {
		if res.Err == nil && res.Valid {
			verified++
		}
	}

	renderReport(engine, succeeded, verified, proveElapsed, verifyElapsed)
	return nil
}

// renderReport 输出基准报告
func renderReport(engine *zkbackend.Engine, succeeded, verified int, proveElapsed, verifyElapsed time.Duration) {
	stats := engine.Stats()
	cacheStats := engine.CacheStats()
	usage := engine.ResourceUsage()
	health := engine.HealthCheck()

	pterm.DefaultSection.Println("统计")
	_ = pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"指标", "值"},
		{"证明成功", fmt.Sprintf("%d (耗时 %v)", succeeded, proveElapsed)},
		{"验证通过", fmt.Sprintf("%d (耗时 %v)", verified, verifyElapsed)},
		{"真实证明次数", fmt.Sprintf("%d", stats.TotalProofs)},
		{"真实验证次数", fmt.Sprintf("%d", stats.TotalVerifications)},
		{"失败次数", fmt.Sprintf("%d", stats.TotalFailures)},
		{"平均证明耗时", stats.AvgProvingTime.String()},
		{"平均验证耗时", stats.AvgVerificationTime.String()},
	}).Render()

	pterm.DefaultSection.Println("缓存")
	_ = pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"缓存", "条目", "命中"},
		{"电路", fmt.Sprintf("%d", cacheStats.CircuitEntries), fmt.Sprintf("%d", cacheStats.CircuitHits)},
		{"证明", fmt.Sprintf("%d", cacheStats.ProofEntries), fmt.Sprintf("%d", cacheStats.ProofHits)},
	}).Render()

	pterm.DefaultSection.Println("资源")
	_ = pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"维度", "值"},
		{"CPU使用率", fmt.Sprintf("%.2f", usage.CPUUsage)},
		{"内存使用", fmt.Sprintf("%d MB", usage.MemoryUsage/1024/1024)},
		{"可用内存", fmt.Sprintf("%d MB", usage.AvailableMemory/1024/1024)},
		{"活跃任务", fmt.Sprintf("%d", usage.ActiveTasks)},
		{"队列深度", fmt.Sprintf("%d", usage.QueueDepth)},
	}).Render()

	switch health.State {
	case types.Healthy:
		pterm.Success.Println("健康状态: " + health.State.String())
	case types.Degraded:
		pterm.Warning.Printf("健康状态: %s (%s)\n", health.State, health.Reason)
	default:
		pterm.Error.Printf("健康状态: %s (%s)\n", health.State, health.Reason)
	}
}
