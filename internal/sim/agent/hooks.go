package agent

import (
	"fmt"
	"strings"

	"nuncle.ai/internal/protocol"
	"nuncle.ai/internal/sim/geom"
)

// OnDamage records damage taken by the agent body. It does not change
// behavior.
func (c *Controller) OnDamage(ref EntityRef, amount float64, source string) {
	if c.ref == "" || ref != c.ref {
		return
	}
	c.logf("DAMAGED %.1f %s", amount, source)
	c.emit(protocol.Event{"type": "DAMAGED", "amount": amount, "source": source})
}

// OnDeath clears all state. The world has already removed the body.
func (c *Controller) OnDeath(ref EntityRef, cause string) {
	if c.ref == "" || ref != c.ref {
		return
	}
	c.logf("DIED cause=%s", cause)
	c.emit(protocol.Event{"type": "DIED", "cause": cause})
	c.announce(c.Name() + " has died")
	c.reset()
}

// OnChat handles a chat line from a player. "!nuncle" makes the agent
// report where it is; anything else said within hearing range is recorded.
// It reports whether the agent replied.
func (c *Controller) OnChat(from string, at geom.Vec3, text string) bool {
	self, ok := c.self()
	if !ok {
		return false
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(text)), "!nuncle") {
		biome := biomeLabel(c.w.Biome(self.Pos))
		c.logf("SUMMONED %s at %s (%s) boundary=%s", from, self.Pos, biome, c.BoundaryDescription())
		c.emit(protocol.Event{"type": "SUMMONED", "from": from, "pos": ipos(self.Pos)})
		c.Chat(fmt.Sprintf("I'm at %s (%s)", self.Pos, biome))
		return true
	}
	if self.Pos.Dist(at) <= c.t.HearingRadius {
		c.logf("HEARD %s %s", from, text)
		c.emit(protocol.Event{"type": "HEARD", "from": from, "text": text})
	}
	return false
}

func biomeLabel(b string) string {
	if b == "" {
		return "unknown"
	}
	return strings.ReplaceAll(b, "_", " ")
}

// Where reports the agent's block position and biome for any player.
func (c *Controller) Where() Result {
	self, ok := c.self()
	if !ok {
		return refuse(ErrNotSpawned, c.Name()+" is not currently spawned")
	}
	return success(fmt.Sprintf("[%s] at %s (%s)", c.Name(), self.Pos, biomeLabel(c.w.Biome(self.Pos))))
}
