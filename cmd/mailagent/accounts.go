package main

import (
	"fmt"

	"github.com/zerolib/mailagent/pkgs/config"
)

func handleAccounts(settings *config.Settings) error {
	if len(settings.Emails) == 0 && len(settings.Providers) == 0 {
		fmt.Println("No accounts configured.")
		return nil
	}

	for _, a := range settings.Emails {
		fmt.Printf("%s\t%s\t(imap %s:%d, smtp %s:%d)\n",
			a.AccountName, a.EmailAddress,
			a.Incoming.Host, a.Incoming.Port,
			a.Outgoing.Host, a.Outgoing.Port)
	}
	for _, a := range settings.Providers {
		fmt.Printf("%s\tprovider:%s\t(mailbox operations not supported)\n",
			a.AccountName, a.ProviderName)
	}
	return nil
}
