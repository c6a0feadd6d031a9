package core

import "sync"

// BlockList is a thread-safe set of blocked IPs.
type BlockList struct {
	ips sync.Map
}

func NewBlockList() *BlockList {
	return &BlockList{}
}

func (bl *BlockList) Add(ip string) {
	bl.ips.Store(ip, struct{}{})
}

func (bl *BlockList) Remove(ip string) {
	bl.ips.Delete(ip)
}

func (bl *BlockList) Contains(ip string) bool {
	_, exists := bl.ips.Load(ip)
	return exists
}
