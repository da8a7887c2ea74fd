package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Connexions/plpydbapi/internal/config"
)

var encryptPassword string

var encryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "加密数据库密码",
	RunE: func(cmd *cobra.Command, args []string) error {
		if encryptPassword == "" {
			return fmt.Errorf("请提供密码")
		}
		encrypted, err := config.EncryptPassword(encryptPassword)
		if err != nil {
			return fmt.Errorf("加密失败: %w", err)
		}
		fmt.Printf("加密后的密码: %s\n", encrypted)
		return nil
	},
}

var decryptPassword string

var decryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "解密数据库密码",
	RunE: func(cmd *cobra.Command, args []string) error {
		if decryptPassword == "" {
			return fmt.Errorf("请提供加密密码")
		}
		decrypted, err := config.DecryptPassword(decryptPassword)
		if err != nil {
			return fmt.Errorf("解密失败: %w", err)
		}
		fmt.Printf("解密后的密码: %s\n", decrypted)
		return nil
	},
}

func init() {
	encryptCmd.Flags().StringVarP(&encryptPassword, "password", "p", "", "要加密的密码")
	decryptCmd.Flags().StringVarP(&decryptPassword, "password", "p", "", "要解密的密码")
}
