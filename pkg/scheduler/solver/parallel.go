// Package solver 提供排班求解器
package solver

import (
	"sync"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
)

// rootBranch 根节点分支：首个席位的一种决策
type rootBranch struct {
	assignment *model.Assignment // nil 表示留空分支
}

// exploreRootsParallel 以工作协程池并行探索根分支
// 每个分支持有独立的上下文克隆，当前最优解经 cpSearch 互斥共享
func exploreRootsParallel(search *cpSearch, schedCtx *constraint.Context, workers int) {
	first := search.seats[0]

	branches := []rootBranch{}
	for _, person := range search.candidatesFor(schedCtx, first) {
		assignment := model.NewAssignment(person.ID, first.slot, first.tpl.ID)
		if ok, _ := search.cm.CanAssign(schedCtx, assignment); !ok {
			continue
		}
		branches = append(branches, rootBranch{assignment: assignment})
	}
	branches = append(branches, rootBranch{}) // 留空分支

	jobChan := make(chan rootBranch, len(branches))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for branch := range jobChan {
				search.mu.Lock()
				stop := !search.complete
				search.mu.Unlock()
				if stop {
					continue
				}

				clone := schedCtx.Clone()
				var produced []*model.Assignment
				if branch.assignment != nil {
					clone.AddAssignment(branch.assignment)
					produced = append(produced, branch.assignment)
				}
				search.dfs(clone, 1, produced)
			}
		}()
	}

	for _, branch := range branches {
		jobChan <- branch
	}
	close(jobChan)

	wg.Wait()
}
