package auth

import "strings"

// AdminList is the set of wallets granted admin rights. It is built from
// configuration and passed to whatever needs it.
type AdminList map[string]struct{}

func NewAdminList(wallets []string) AdminList {
	l := make(AdminList, len(wallets))
	for _, w := range wallets {
		if w = strings.TrimSpace(w); w != "" {
			l[w] = struct{}{}
		}
	}
	return l
}

func (l AdminList) Contains(wallet string) bool {
	_, ok := l[wallet]
	return ok
}
