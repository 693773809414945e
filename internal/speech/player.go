package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

var ErrNoPlayer = errors.New("没有可用的音频播放器")

// commandRunner 执行外部命令（便于测试注入 mock）
type commandRunner interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args ...string) error
}

type execRunner struct{}

func (execRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	var stderr strings.Builder
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// playerArgs 各播放器的静默播放参数
func playerArgs(player, path string) []string {
	switch player {
	case "mpv":
		return []string{"--no-video", "--really-quiet", path}
	case "ffplay":
		return []string{"-nodisp", "-autoexit", "-loglevel", "quiet", path}
	default:
		return []string{path}
	}
}

// Player 按顺序尝试播放器，第一个成功播放的生效
type Player struct {
	players []string
	runner  commandRunner
}

func NewPlayer(players []string) *Player {
	return &Player{players: players, runner: execRunner{}}
}

func (p *Player) Play(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("音频文件不存在: %w", err)
	}

	var errs []error
	for _, player := range p.players {
		bin, err := p.runner.LookPath(player)
		if err != nil {
			continue
		}
		if err := p.runner.Run(ctx, bin, playerArgs(player, path)...); err != nil {
			errs = append(errs, err)
			continue
		}
		return nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w (tried: %s): %w", ErrNoPlayer, strings.Join(p.players, ", "), errors.Join(errs...))
	}
	return fmt.Errorf("%w (tried: %s)", ErrNoPlayer, strings.Join(p.players, ", "))
}
